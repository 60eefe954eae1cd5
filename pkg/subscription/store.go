package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for subscription persistence.
// Each user has exactly one subscription, so UserID serves as the primary key.
// Implementations must provide per-record compare-and-swap semantics; the
// webhook processor relies on revision-guarded writes instead of locks.
type Store interface {
	// Get retrieves a subscription by user ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Create persists a new subscription at revision 1.
	// Returns ErrSubscriptionAlreadyExists if the user already has one.
	Create(ctx context.Context, sub *Subscription) error

	// UpdateCAS writes the subscription only if the stored revision equals
	// expectedRevision, bumping Revision to expectedRevision+1 atomically
	// with the rest of the record. Returns ErrConcurrencyConflict when a
	// concurrent writer already advanced the revision.
	UpdateCAS(ctx context.Context, sub *Subscription, expectedRevision int64) error

	// Revision returns the current revision for a user's subscription,
	// or ErrSubscriptionNotFound. Used by the gate's stale-cache check, so
	// implementations should keep it cheap.
	Revision(ctx context.Context, userID uuid.UUID) (int64, error)
}
