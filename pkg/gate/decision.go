package gate

import (
	"time"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// DenyReason is the machine-readable cause of a denied access check.
type DenyReason string

const (
	DenyNoActiveSubscription DenyReason = "no_active_subscription"
	DenyFeatureNotEntitled   DenyReason = "feature_not_entitled"
	DenyUsageLimitExceeded   DenyReason = "usage_limit_exceeded"
)

// Decision is the outcome of a feature access check. A granted decision
// carries the remaining usage (Unlimited for unmetered entitlements) and the
// counter reset time; a denied one carries the reason and, where a higher
// plan would grant the feature, an upgrade hint. No internal identifiers or
// stack traces ever leave through a Decision.
type Decision struct {
	Granted     bool       `json:"granted"`
	Remaining   int64      `json:"remaining,omitempty"` // subscription.Unlimited when unmetered
	ResetAt     time.Time  `json:"reset_at,omitzero"`
	Reason      DenyReason `json:"reason,omitempty"`
	UpgradeHint string     `json:"upgrade_hint,omitempty"`
}

// Unmetered reports whether the granted decision is free of usage limits.
func (d Decision) Unmetered() bool {
	return d.Granted && d.Remaining == subscription.Unlimited
}
