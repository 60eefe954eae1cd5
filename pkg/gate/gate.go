package gate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/cache"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
	"github.com/dmitrymomot/gatekit/pkg/usage"
)

// Service is the feature gate decision engine.
type Service interface {
	// CheckAccess decides whether the user may invoke the feature right now.
	// Expected denials are returned as a Decision, never as an error; only
	// infrastructure faults (store unreachable) surface as errors.
	CheckAccess(ctx context.Context, userID uuid.UUID, feature subscription.Feature) (Decision, error)
}

type service struct {
	subs       subscription.Store
	catalog    *subscription.Catalog
	usageStore usage.Store
	cache      cache.Cache
	logger     *slog.Logger
}

// Option configures optional service dependencies.
type Option func(*service)

// WithLogger sets the logger for cache soft failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a feature gate service.
// Panics if required dependencies are nil to fail fast during initialization.
func NewService(subs subscription.Store, catalog *subscription.Catalog, usageStore usage.Store, c cache.Cache, opts ...Option) Service {
	if subs == nil {
		panic("gate: subscription store is required")
	}
	if catalog == nil {
		panic("gate: plan catalog is required")
	}
	if usageStore == nil {
		panic("gate: usage store is required")
	}
	if c == nil {
		panic("gate: cache is required")
	}

	s := &service{
		subs:       subs,
		catalog:    catalog,
		usageStore: usageStore,
		cache:      c,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAccess is read-mostly and never writes to the authoritative stores,
// which keeps it safe to scale horizontally. The only side effect of a miss
// is one cache entry write.
func (s *service) CheckAccess(ctx context.Context, userID uuid.UUID, feature subscription.Feature) (Decision, error) {
	key := cache.DecisionKey(userID, string(feature))

	// Serve from cache only when the entry was computed from the
	// subscription revision that is still current. This bounds staleness to
	// "last invalidation" instead of trusting TTLs.
	currentRev := s.currentRevision(ctx, userID)
	if entry, ok, _ := s.cache.Get(ctx, key); ok && entry.Revision == currentRev {
		var decision Decision
		if err := json.Unmarshal(entry.Value, &decision); err == nil {
			return decision, nil
		}
		// Corrupt entry: fall through and recompute.
	}

	decision, revision, err := s.compute(ctx, userID, feature)
	if err != nil {
		return Decision{}, err
	}

	s.cachePut(ctx, key, decision, revision)
	return decision, nil
}

func (s *service) compute(ctx context.Context, userID uuid.UUID, feature subscription.Feature) (Decision, int64, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return Decision{Granted: false, Reason: DenyNoActiveSubscription}, 0, nil
		}
		return Decision{}, 0, err
	}

	if !sub.AccessGranting() {
		return Decision{Granted: false, Reason: DenyNoActiveSubscription}, sub.Revision, nil
	}

	ent, err := s.catalog.EntitlementFor(sub.PlanID, feature)
	if err != nil {
		return Decision{}, 0, err
	}

	if !ent.Entitled {
		return Decision{
			Granted:     false,
			Reason:      DenyFeatureNotEntitled,
			UpgradeHint: s.catalog.MinimumTierFor(feature),
		}, sub.Revision, nil
	}

	if !ent.Metered {
		return Decision{Granted: true, Remaining: subscription.Unlimited, ResetAt: sub.PeriodEnd}, sub.Revision, nil
	}

	count, err := s.currentCount(ctx, userID, feature, sub.PeriodKey())
	if err != nil {
		return Decision{}, 0, err
	}

	if count >= ent.Limit {
		// Limits reset on schedule, so the staleness window of this denial
		// is bounded by the cache TTL plus the usage-side invalidation.
		return Decision{Granted: false, Reason: DenyUsageLimitExceeded, ResetAt: sub.PeriodEnd}, sub.Revision, nil
	}

	return Decision{Granted: true, Remaining: ent.Limit - count, ResetAt: sub.PeriodEnd}, sub.Revision, nil
}

// currentCount reads the usage counter, treating a missing record as zero:
// records are created lazily on first use in a period.
func (s *service) currentCount(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string) (int64, error) {
	rec, err := s.usageStore.Get(ctx, userID, feature, period)
	if err != nil {
		if errors.Is(err, usage.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.Count, nil
}

// currentRevision returns the authoritative revision for the user's
// subscription, or zero when none exists. Zero matches entries cached for
// the no-subscription denial.
func (s *service) currentRevision(ctx context.Context, userID uuid.UUID) int64 {
	rev, err := s.subs.Revision(ctx, userID)
	if err != nil {
		return 0
	}
	return rev
}

func (s *service) cachePut(ctx context.Context, key string, decision Decision, revision int64) {
	value, err := json.Marshal(decision)
	if err != nil {
		return
	}
	if err := s.cache.Put(ctx, key, cache.Entry{
		Value:     value,
		Revision:  revision,
		WrittenAt: time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "gate: decision cache write failed", "key", key, "error", err)
	}
}
