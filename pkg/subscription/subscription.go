package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription represents a user's subscription to a plan.
// Each user has exactly one subscription at a time; UserID is the primary key.
// The record is mutated only by webhook processing, never by user-facing
// request paths.
type Subscription struct {
	UserID        uuid.UUID // primary key - one subscription per user
	PlanID        string
	Status        Status
	ProviderSubID string    // billing provider's subscription ID
	PeriodStart   time.Time // current billing period window
	PeriodEnd     time.Time
	Revision      int64 // strictly increasing on every write
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CanceledAt    *time.Time // set when subscription is canceled
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// AccessGranting reports whether the subscription's current status permits
// feature access.
func (s *Subscription) AccessGranting() bool {
	return s.Status.AccessGranting()
}

// PeriodKey returns the usage-counter key for the current billing period.
// Counters accumulate against this key and reset when the period rolls over.
func (s *Subscription) PeriodKey() string {
	return PeriodKeyAt(s.PeriodStart)
}

// PeriodKeyAt derives a period key from a billing period start time.
func PeriodKeyAt(periodStart time.Time) string {
	return periodStart.UTC().Format("2006-01-02")
}

// InPeriodAt reports whether t falls within the subscription's current
// billing period window.
func (s *Subscription) InPeriodAt(t time.Time) bool {
	return !t.Before(s.PeriodStart) && t.Before(s.PeriodEnd)
}
