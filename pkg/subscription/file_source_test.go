package subscription_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

func TestFilePlans_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "free", "name": "Free", "tier": 0, "limits": {"export": 3}},
		{"id": "pro", "name": "Pro", "tier": 1,
		 "features": ["custom_domain"],
		 "limits": {"export": -1, "ai_review": 50},
		 "price": {"amount": 1900, "currency": "USD"},
		 "interval": "monthly"}
	]`), 0o600))

	catalog, err := subscription.NewCatalog(context.Background(), subscription.FilePlans{Path: path})
	require.NoError(t, err)

	plan, err := catalog.Plan("pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro", plan.Name)
	assert.Equal(t, int64(1900), plan.Price.Amount)
	assert.Equal(t, subscription.BillingIntervalMonthly, plan.Interval)

	ent, err := catalog.EntitlementFor("pro", subscription.FeatureAIReview)
	require.NoError(t, err)
	assert.True(t, ent.Metered)
	assert.Equal(t, int64(50), ent.Limit)
}

func TestFilePlans_Load_Missing(t *testing.T) {
	t.Parallel()

	_, err := subscription.FilePlans{Path: "testdata/nope.json"}.Load(context.Background())
	assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlans)
}

func TestFilePlans_Load_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"`), 0o600))

	_, err := subscription.FilePlans{Path: path}.Load(context.Background())
	assert.ErrorIs(t, err, subscription.ErrFailedToLoadPlans)
}
