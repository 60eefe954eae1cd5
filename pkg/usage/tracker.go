package usage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/cache"
	"github.com/dmitrymomot/gatekit/pkg/notification"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// Tracker defines the public interface for usage metering.
type Tracker interface {
	// RecordUsage atomically counts a feature use against the current
	// billing period and enforces the plan limit. Expected denials are
	// returned as a rejected Outcome, never as an error.
	RecordUsage(ctx context.Context, userID uuid.UUID, feature subscription.Feature, amount int64) (Outcome, error)

	// ResetPeriod archives the prior period's records and starts the new
	// period with zeroed counters. Idempotent: calling it twice for the
	// same period yields the same state as calling it once.
	ResetPeriod(ctx context.Context, userID uuid.UUID) error
}

type tracker struct {
	subs     subscription.Store
	catalog  *subscription.Catalog
	store    Store
	cache    cache.Cache
	notifier notification.Notifier
	logger   *slog.Logger
}

// TrackerOption configures optional tracker dependencies.
type TrackerOption func(*tracker)

// WithNotifier sets the collaborator receiving threshold alerts.
func WithNotifier(n notification.Notifier) TrackerOption {
	return func(t *tracker) {
		if n != nil {
			t.notifier = n
		}
	}
}

// WithLogger sets the logger for cache and alert soft failures.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates a usage tracker.
// Panics if required dependencies are nil to fail fast during initialization.
func NewTracker(subs subscription.Store, catalog *subscription.Catalog, store Store, c cache.Cache, opts ...TrackerOption) Tracker {
	if subs == nil {
		panic("usage: subscription store is required")
	}
	if catalog == nil {
		panic("usage: plan catalog is required")
	}
	if store == nil {
		panic("usage: usage store is required")
	}
	if c == nil {
		panic("usage: cache is required")
	}

	t := &tracker{
		subs:     subs,
		catalog:  catalog,
		store:    store,
		cache:    c,
		notifier: notification.NewSlogNotifier(nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *tracker) RecordUsage(ctx context.Context, userID uuid.UUID, feature subscription.Feature, amount int64) (Outcome, error) {
	if amount <= 0 {
		return Outcome{}, ErrInvalidAmount
	}

	sub, err := t.subs.Get(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	ent, err := t.catalog.EntitlementFor(sub.PlanID, feature)
	if err != nil {
		return Outcome{}, err
	}

	// An unentitled feature meters against a zero limit, so the
	// increment-then-check below rejects it the same way an exhausted
	// limit would. The gate is the entitlement authority on the read path.
	metered := ent.Metered || !ent.Entitled

	period := sub.PeriodKey()
	newCount, err := t.store.Increment(ctx, userID, feature, period, amount, ent.Limit, sub.PeriodEnd)
	if err != nil {
		return Outcome{}, err
	}

	if metered && newCount > ent.Limit {
		// Compensating decrement: the transient overshoot is corrected
		// before this call returns, so the stored count never exceeds the
		// limit from any other caller's perspective after RecordUsage.
		if _, err := t.store.Decrement(ctx, userID, feature, period, amount); err != nil {
			return Outcome{}, err
		}
		t.invalidateDecision(ctx, userID, feature)
		return Outcome{Accepted: false, NewCount: newCount - amount, Reason: RejectLimitExceeded}, nil
	}

	if metered && ent.Limit > 0 {
		t.fireThresholdAlerts(ctx, userID, feature, period, newCount, ent.Limit)
	}

	t.invalidateDecision(ctx, userID, feature)

	remaining := subscription.Unlimited
	if metered {
		remaining = ent.Limit - newCount
	}
	return Outcome{Accepted: true, NewCount: newCount, Remaining: remaining}, nil
}

func (t *tracker) ResetPeriod(ctx context.Context, userID uuid.UUID) error {
	sub, err := t.subs.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := t.store.ArchivePeriods(ctx, userID, sub.PeriodKey()); err != nil {
		return err
	}

	if err := t.cache.InvalidatePrefix(ctx, cache.UserPrefix(userID)); err != nil {
		t.logger.WarnContext(ctx, "usage: cache invalidation failed after period reset",
			"user_id", userID.String(), "error", err)
	}
	return nil
}

// fireThresholdAlerts emits one-shot alerts when the new count crosses
// 80/90/100% of the limit. Deduplication is delegated to the store so
// concurrent increments across processes cannot double-fire.
func (t *tracker) fireThresholdAlerts(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, count, limit int64) {
	for _, threshold := range alertThresholds {
		if count*100 < int64(threshold)*limit {
			continue
		}

		first, err := t.store.MarkThreshold(ctx, userID, feature, period, threshold)
		if err != nil {
			t.logger.WarnContext(ctx, "usage: threshold mark failed",
				"user_id", userID.String(), "feature", string(feature), "threshold", threshold, "error", err)
			continue
		}
		if !first {
			continue
		}

		if err := t.notifier.Notify(ctx, userID, notification.AlertUsageThreshold, map[string]any{
			"feature":   string(feature),
			"threshold": threshold,
			"count":     count,
			"limit":     limit,
			"period":    period,
		}); err != nil {
			t.logger.WarnContext(ctx, "usage: threshold alert delivery failed",
				"user_id", userID.String(), "feature", string(feature), "threshold", threshold, "error", err)
		}
	}
}

func (t *tracker) invalidateDecision(ctx context.Context, userID uuid.UUID, feature subscription.Feature) {
	if err := t.cache.Invalidate(ctx, cache.DecisionKey(userID, string(feature))); err != nil {
		t.logger.WarnContext(ctx, "usage: decision cache invalidation failed",
			"user_id", userID.String(), "feature", string(feature), "error", err)
	}
}
