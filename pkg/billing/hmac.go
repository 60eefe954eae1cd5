package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACProvider is a Provider for billing backends that sign webhooks with a
// plain HMAC-SHA256 over the payload (hex-encoded in the signature header).
// Price lookups resolve against a static catalog supplied at construction,
// which also makes this the provider of choice in tests.
type HMACProvider struct {
	secret []byte
	prices map[string]Price
}

// NewHMACProvider creates a shared-secret provider.
// Panics on an empty secret to fail fast during initialization.
func NewHMACProvider(secret string, prices map[string]Price) *HMACProvider {
	if secret == "" {
		panic("billing: webhook secret is required")
	}
	if prices == nil {
		prices = make(map[string]Price)
	}
	return &HMACProvider{secret: []byte(secret), prices: prices}
}

// Sign computes the signature for a payload, the counterpart of
// VerifySignature for tests and outbound use.
func (p *HMACProvider) Sign(payload []byte) string {
	h := hmac.New(sha256.New, p.secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (p *HMACProvider) VerifySignature(_ context.Context, payload []byte, signature string) error {
	// Constant-time comparison prevents timing-based signature recovery.
	if !hmac.Equal([]byte(p.Sign(payload)), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

func (p *HMACProvider) GetPrice(_ context.Context, priceID string) (Price, error) {
	price, ok := p.prices[priceID]
	if !ok {
		return Price{}, ErrPriceNotFound
	}
	return price, nil
}
