package cache

import (
	"context"
	"log/slog"
)

// Tiered composes the in-process L1 tier with an optional shared L2 tier.
// Reads check L1 first, then L2 (populating L1 on an L2 hit). Writes populate
// both tiers. Invalidation propagates to both tiers synchronously; if the
// shared tier stays unreachable after the retry budget, the failure is logged
// as a cache-inconsistency warning and swallowed - callers enforce
// correctness with the revision check, not with invalidation alone.
type Tiered struct {
	l1     *Local
	l2     Cache // nil when running without a shared tier
	logger *slog.Logger

	invalidateRetries int
}

// TieredOption configures a Tiered cache.
type TieredOption func(*Tiered)

// WithLogger sets the logger used for cache-inconsistency warnings.
func WithLogger(logger *slog.Logger) TieredOption {
	return func(t *Tiered) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithInvalidateRetries sets the retry budget for shared-tier invalidation.
func WithInvalidateRetries(n int) TieredOption {
	return func(t *Tiered) {
		if n > 0 {
			t.invalidateRetries = n
		}
	}
}

// NewTiered creates a two-tier cache. l2 may be nil for single-process
// deployments and tests; all operations then work against l1 alone.
func NewTiered(l1 *Local, l2 Cache, opts ...TieredOption) *Tiered {
	if l1 == nil {
		panic("cache: local tier is required")
	}

	t := &Tiered{
		l1:                l1,
		l2:                l2,
		logger:            slog.Default(),
		invalidateRetries: 3,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tiered) Get(ctx context.Context, key string) (Entry, bool, error) {
	if entry, ok, _ := t.l1.Get(ctx, key); ok {
		return entry, true, nil
	}

	if t.l2 == nil {
		return Entry{}, false, nil
	}

	entry, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		// A degraded shared tier turns into a miss; the caller recomputes
		// from the authoritative stores.
		t.logger.WarnContext(ctx, "cache: shared tier read failed", "key", key, "error", err)
		return Entry{}, false, nil
	}
	if !ok {
		return Entry{}, false, nil
	}

	_ = t.l1.Put(ctx, key, entry)
	return entry, true, nil
}

func (t *Tiered) Put(ctx context.Context, key string, entry Entry) error {
	_ = t.l1.Put(ctx, key, entry)

	if t.l2 != nil {
		if err := t.l2.Put(ctx, key, entry); err != nil {
			t.logger.WarnContext(ctx, "cache: shared tier write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (t *Tiered) Invalidate(ctx context.Context, key string) error {
	_ = t.l1.Invalidate(ctx, key)

	if t.l2 == nil {
		return nil
	}
	t.withRetry(ctx, key, func() error {
		return t.l2.Invalidate(ctx, key)
	})
	return nil
}

func (t *Tiered) InvalidatePrefix(ctx context.Context, prefix string) error {
	_ = t.l1.InvalidatePrefix(ctx, prefix)

	if t.l2 == nil {
		return nil
	}
	t.withRetry(ctx, prefix, func() error {
		return t.l2.InvalidatePrefix(ctx, prefix)
	})
	return nil
}

// withRetry runs fn up to the retry budget and logs a cache-inconsistency
// warning when the budget is exhausted. The triggering business operation is
// never failed by an invalidation error.
func (t *Tiered) withRetry(ctx context.Context, key string, fn func() error) {
	var err error
	for range t.invalidateRetries {
		if err = fn(); err == nil {
			return
		}
	}
	t.logger.WarnContext(ctx, "cache: shared tier invalidation failed, entries may be stale until TTL",
		"key", key, "error", err)
}
