package billing

import (
	"context"
)

// Provider is the minimal billing-provider client the engine consumes: the
// webhook processor verifies event signatures through it, and handlers
// resolve a webhook's plan/price reference against the provider catalog.
// Checkout and portal flows live outside this engine.
type Provider interface {
	// VerifySignature validates a webhook payload against the provider's
	// signing secret. Returns ErrSignatureInvalid for a bad or missing
	// signature; such requests are rejected and never retried.
	VerifySignature(ctx context.Context, payload []byte, signature string) error

	// GetPrice resolves a provider price ID to its terms, used when a
	// webhook references a plan the processor needs to validate.
	GetPrice(ctx context.Context, priceID string) (Price, error)
}

// Price describes the provider-side terms for a plan's price ID.
type Price struct {
	ID        string
	ProductID string
	Amount    int64  // smallest currency unit
	Currency  string // ISO 4217 code
}
