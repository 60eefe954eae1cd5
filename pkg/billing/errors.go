package billing

import "errors"

var (
	ErrSignatureInvalid = errors.New("billing webhook signature invalid")
	ErrPriceNotFound    = errors.New("billing price not found")

	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrInvalidEnvironment   = errors.New("invalid billing provider environment")
)
