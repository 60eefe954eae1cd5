package subscription

// Feature identifies a metered or boolean premium capability.
type Feature string

const (
	FeatureExport       Feature = "export"
	FeatureAIReview     Feature = "ai_review"
	FeatureTemplates    Feature = "templates"
	FeatureCustomDomain Feature = "custom_domain"
	FeatureAPI          Feature = "api"
	FeaturePriority     Feature = "priority_support"
)

const (
	// Unlimited indicates no limit for a metered feature (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount"`   // Amount in smallest currency unit (cents for USD)
	Currency string `json:"currency"` // ISO 4217 currency code
}

// BillingInterval represents the billing frequency for a subscription plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // Free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Status represents the current state of a subscription as driven by
// the billing provider's event stream.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
)

// AccessGranting reports whether the status permits feature access.
// Only Active and Trialing grant access; PastDue and Unpaid deny until
// payment recovers.
func (s Status) AccessGranting() bool {
	return s == StatusActive || s == StatusTrialing
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCanceled
}

// Entitlement describes a plan's grant of access to a single feature.
type Entitlement struct {
	Entitled bool
	Metered  bool  // true when usage counts against Limit
	Limit    int64 // meaningful only when Metered; Unlimited disables metering
}
