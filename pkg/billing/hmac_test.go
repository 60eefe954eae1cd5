package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/billing"
)

func TestHMACProvider_VerifySignature(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := billing.NewHMACProvider("test-secret", nil)
	payload := []byte(`{"event_id":"evt_1"}`)

	sig := provider.Sign(payload)
	require.NoError(t, provider.VerifySignature(ctx, payload, sig))

	assert.ErrorIs(t, provider.VerifySignature(ctx, payload, "deadbeef"), billing.ErrSignatureInvalid)
	assert.ErrorIs(t, provider.VerifySignature(ctx, []byte("tampered"), sig), billing.ErrSignatureInvalid)
	assert.ErrorIs(t, provider.VerifySignature(ctx, payload, ""), billing.ErrSignatureInvalid)
}

func TestHMACProvider_GetPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := billing.NewHMACProvider("test-secret", map[string]billing.Price{
		"price_pro": {ID: "price_pro", Amount: 1900, Currency: "USD"},
	})

	price, err := provider.GetPrice(ctx, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, int64(1900), price.Amount)

	_, err = provider.GetPrice(ctx, "price_unknown")
	assert.ErrorIs(t, err, billing.ErrPriceNotFound)
}

func TestNewHMACProvider_PanicsWithoutSecret(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { billing.NewHMACProvider("", nil) })
}
