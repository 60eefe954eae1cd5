package cache

import (
	"context"
	"time"
)

// Entry is a cached value tagged with the revision of the authoritative
// record it was computed from. Consumers must treat an entry whose Revision
// is older than the store's current revision as stale; the TTLs on both tiers
// are defense in depth, not the correctness mechanism.
type Entry struct {
	Value     []byte    `json:"value"`
	Revision  int64     `json:"revision"`
	WrittenAt time.Time `json:"written_at"`
}

// Cache is a keyed entry store with explicit invalidation.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the entry for key and whether it was present.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put stores the entry under key in all tiers.
	Put(ctx context.Context, key string, entry Entry) error

	// Invalidate removes the entry for key from all tiers.
	Invalidate(ctx context.Context, key string) error

	// InvalidatePrefix removes every entry whose key starts with prefix
	// from all tiers.
	InvalidatePrefix(ctx context.Context, prefix string) error
}
