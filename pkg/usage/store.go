package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// Store persists usage counters. Increment and Decrement must be atomic at
// the store level - multiple concurrent feature uses by the same user must
// not lose increments, and the tracker relies on increment-then-check with a
// compensating decrement rather than locks.
type Store interface {
	// Increment atomically adds amount to the counter, creating the record
	// lazily, and refreshes the limit snapshot and reset time. Returns the
	// post-increment count.
	Increment(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount, limit int64, resetAt time.Time) (int64, error)

	// Decrement atomically subtracts amount, used to roll back a rejected
	// increment. The count never goes below zero.
	Decrement(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount int64) (int64, error)

	// Get returns the record for the period. Returns ErrRecordNotFound when
	// no usage has been recorded yet.
	Get(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string) (Record, error)

	// MarkThreshold records that the threshold alert fired for the period.
	// Returns true only on the first call per (user, feature, threshold,
	// period), deduplicating alert storms.
	MarkThreshold(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, threshold int) (bool, error)

	// ArchivePeriods removes (or archives, implementation-defined) every
	// record and threshold marker for the user outside currentPeriod. Must
	// be idempotent: a second call with the same period is a no-op.
	ArchivePeriods(ctx context.Context, userID uuid.UUID, currentPeriod string) error
}
