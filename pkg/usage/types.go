package usage

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// Record is a per-user, per-feature usage counter scoped to one billing
// period. Records are created lazily on first use within a period and
// archived when the period rolls over.
type Record struct {
	UserID     uuid.UUID
	Feature    subscription.Feature
	Period     string // billing-period key, see subscription.PeriodKeyAt
	Count      int64
	Limit      int64 // limit snapshot at last write; Unlimited when unmetered
	LastUsedAt time.Time
	ResetAt    time.Time // when the counter resets (current period end)
}

// Outcome is the result of a RecordUsage call.
type Outcome struct {
	Accepted  bool
	NewCount  int64
	Remaining int64 // Unlimited when the feature is unmetered
	Reason    RejectReason
}

// RejectReason explains a rejected usage increment.
type RejectReason string

const (
	RejectLimitExceeded RejectReason = "limit_exceeded"
)

// alertThresholds are the usage percentages that trigger a one-shot alert
// per (user, feature, threshold, period).
var alertThresholds = []int{80, 90, 100}
