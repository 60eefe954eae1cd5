package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/billing"
	"github.com/dmitrymomot/gatekit/pkg/cache"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
	"github.com/dmitrymomot/gatekit/pkg/usage"
	"github.com/dmitrymomot/gatekit/pkg/webhook"
	billingsvc "github.com/dmitrymomot/gatekit/svc/billing"
)

type ingressFixture struct {
	provider *billing.HMACProvider
	subs     *subscription.MemoryStore
	server   *httptest.Server
}

func newIngressFixture(t *testing.T) *ingressFixture {
	t.Helper()

	catalog, err := subscription.NewCatalog(context.Background(), subscription.StaticPlans{
		{ID: "pro", Name: "Pro", Tier: 1, Limits: map[subscription.Feature]int64{
			subscription.FeatureExport: subscription.Unlimited,
		}},
	})
	require.NoError(t, err)

	f := &ingressFixture{
		provider: billing.NewHMACProvider("test-secret", map[string]billing.Price{
			"pro": {ID: "pro", Amount: 1900, Currency: "USD"},
		}),
		subs: subscription.NewMemoryStore(),
	}

	tiered := cache.NewTiered(cache.NewLocal(100, time.Minute), nil)
	tracker := usage.NewTracker(f.subs, catalog, usage.NewMemoryStore(), tiered)
	processor := webhook.NewProcessor(f.provider, webhook.NewMemoryLog(), f.subs, catalog, tracker, tiered)

	f.server = httptest.NewServer(billingsvc.NewHandler(processor).Handle())
	t.Cleanup(f.server.Close)
	return f
}

func (f *ingressFixture) post(t *testing.T, payload []byte, signature string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/webhooks/billing", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(billingsvc.DefaultSignatureHeader, signature)

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func eventPayload(t *testing.T, eventID string, userID uuid.UUID) []byte {
	t.Helper()

	now := time.Now().UTC()
	payload, err := json.Marshal(webhook.Envelope{
		EventID:    eventID,
		EventType:  webhook.EventSubscriptionCreated,
		OccurredAt: now,
		Data: webhook.EventData{
			SubscriptionID: "sub_" + eventID,
			UserID:         userID.String(),
			PlanID:         "pro",
			Status:         "active",
			PeriodStart:    now,
			PeriodEnd:      now.AddDate(0, 1, 0),
		},
	})
	require.NoError(t, err)
	return payload
}

func decodeResult(t *testing.T, resp *http.Response) webhook.ProcessingResult {
	t.Helper()

	var body struct {
		Result webhook.ProcessingResult `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Result
}

func TestHandler_ProcessedReturns200(t *testing.T) {
	t.Parallel()

	f := newIngressFixture(t)
	userID := uuid.New()
	payload := eventPayload(t, "evt-1", userID)

	resp := f.post(t, payload, f.provider.Sign(payload))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, webhook.ResultProcessed, decodeResult(t, resp))

	sub, err := f.subs.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
}

func TestHandler_DuplicateReturns200(t *testing.T) {
	t.Parallel()

	f := newIngressFixture(t)
	payload := eventPayload(t, "evt-1", uuid.New())
	signature := f.provider.Sign(payload)

	resp := f.post(t, payload, signature)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, payload, signature)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, webhook.ResultDuplicateIgnored, decodeResult(t, resp))
}

func TestHandler_BadSignatureReturns400(t *testing.T) {
	t.Parallel()

	f := newIngressFixture(t)
	payload := eventPayload(t, "evt-1", uuid.New())

	resp := f.post(t, payload, "forged")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, webhook.ResultRejected, decodeResult(t, resp))
}

func TestHandler_MalformedPayloadReturns400(t *testing.T) {
	t.Parallel()

	f := newIngressFixture(t)
	payload := []byte(`{"event_id":`)

	resp := f.post(t, payload, f.provider.Sign(payload))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_TransientFailureReturns500(t *testing.T) {
	t.Parallel()

	f := newIngressFixture(t)
	userID := uuid.New()

	// Plan unknown to the catalog: retryable, so the provider must get 5xx.
	now := time.Now().UTC()
	payload, err := json.Marshal(webhook.Envelope{
		EventID:   "evt-1",
		EventType: webhook.EventSubscriptionCreated,
		Data: webhook.EventData{
			UserID:      userID.String(),
			PlanID:      "legacy-plan",
			Status:      "active",
			PeriodStart: now,
			PeriodEnd:   now.AddDate(0, 1, 0),
		},
	})
	require.NoError(t, err)

	resp := f.post(t, payload, f.provider.Sign(payload))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, webhook.ResultFailed, decodeResult(t, resp))
}

func TestHandler_OversizedPayloadRejected(t *testing.T) {
	t.Parallel()

	catalogSrc := subscription.StaticPlans{{ID: "pro", Name: "Pro", Tier: 1}}
	catalog, err := subscription.NewCatalog(context.Background(), catalogSrc)
	require.NoError(t, err)

	provider := billing.NewHMACProvider("test-secret", nil)
	subs := subscription.NewMemoryStore()
	tiered := cache.NewTiered(cache.NewLocal(10, time.Minute), nil)
	tracker := usage.NewTracker(subs, catalog, usage.NewMemoryStore(), tiered)
	processor := webhook.NewProcessor(provider, webhook.NewMemoryLog(), subs, catalog, tracker, tiered)

	server := httptest.NewServer(billingsvc.NewHandler(processor, billingsvc.WithMaxBodyBytes(64)).Handle())
	t.Cleanup(server.Close)

	payload := bytes.Repeat([]byte("a"), 128)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/webhooks/billing", bytes.NewReader(payload))
	require.NoError(t, err)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
