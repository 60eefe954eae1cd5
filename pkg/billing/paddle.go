package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidEnvironment, fmt.Errorf("environment: %s", config.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

// VerifySignature validates a webhook payload against Paddle's signing
// secret. The SDK verifier operates on an *http.Request, so the payload is
// wrapped into one the way it arrived on the wire.
func (p *PaddleProvider) VerifySignature(ctx context.Context, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return errors.Join(ErrSignatureInvalid, err)
	}
	if !valid {
		return ErrSignatureInvalid
	}
	return nil
}

// GetPrice resolves a Paddle price ID to its terms.
func (p *PaddleProvider) GetPrice(ctx context.Context, priceID string) (Price, error) {
	price, err := p.client.PricesClient.GetPrice(ctx, &paddle.GetPriceRequest{PriceID: priceID})
	if err != nil {
		return Price{}, errors.Join(ErrPriceNotFound, err)
	}

	amount, err := strconv.ParseInt(price.UnitPrice.Amount, 10, 64)
	if err != nil {
		return Price{}, fmt.Errorf("unparseable paddle price amount %q: %w", price.UnitPrice.Amount, err)
	}

	return Price{
		ID:        price.ID,
		ProductID: price.ProductID,
		Amount:    amount,
		Currency:  string(price.UnitPrice.CurrencyCode),
	}, nil
}
