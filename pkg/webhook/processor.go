package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/billing"
	"github.com/dmitrymomot/gatekit/pkg/cache"
	"github.com/dmitrymomot/gatekit/pkg/notification"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
	"github.com/dmitrymomot/gatekit/pkg/usage"
)

// ProcessingResult classifies the outcome of a webhook delivery so the
// ingress layer can pick the right acknowledgement.
type ProcessingResult string

const (
	// ResultProcessed means the event was applied with effect, or was an
	// acknowledged no-op (unknown type, invalid transition anomaly).
	ResultProcessed ProcessingResult = "processed"
	// ResultDuplicateIgnored means the event ID was seen before and already
	// finalized; the delivery had no effect.
	ResultDuplicateIgnored ProcessingResult = "duplicate_ignored"
	// ResultRejected means the delivery is permanently unacceptable
	// (bad signature, malformed payload) and must not be retried.
	ResultRejected ProcessingResult = "rejected"
	// ResultFailed means a transient failure; the provider should redeliver.
	ResultFailed ProcessingResult = "failed"
)

// defaultCASRetries bounds in-process retries on a lost revision race before
// the whole delivery is handed back to the provider's retry schedule.
const defaultCASRetries = 3

// Processor applies billing provider events to subscription state. It is the
// single writer of subscription records on the webhook path; concurrent
// deliveries for the same user are serialized by revision compare-and-swap.
type Processor struct {
	provider billing.Provider
	log      EventLog
	subs     subscription.Store
	catalog  *subscription.Catalog
	tracker  usage.Tracker
	cache    cache.Cache
	notifier notification.Notifier
	logger   *slog.Logger
	policy   RetryPolicy
}

// ProcessorOption configures optional processor dependencies.
type ProcessorOption func(*Processor)

// WithLogger sets the logger for anomalies and soft failures.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithNotifier sets the collaborator receiving failed-permanent alerts.
func WithNotifier(n notification.Notifier) ProcessorOption {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithRetryPolicy overrides the delivery attempt budget.
func WithRetryPolicy(policy RetryPolicy) ProcessorOption {
	return func(p *Processor) {
		p.policy = policy
	}
}

// NewProcessor creates a webhook processor.
// Panics if required dependencies are nil to fail fast during initialization.
func NewProcessor(
	provider billing.Provider,
	log EventLog,
	subs subscription.Store,
	catalog *subscription.Catalog,
	tracker usage.Tracker,
	c cache.Cache,
	opts ...ProcessorOption,
) *Processor {
	if provider == nil {
		panic("webhook: billing provider is required")
	}
	if log == nil {
		panic("webhook: event log is required")
	}
	if subs == nil {
		panic("webhook: subscription store is required")
	}
	if catalog == nil {
		panic("webhook: plan catalog is required")
	}
	if tracker == nil {
		panic("webhook: usage tracker is required")
	}
	if c == nil {
		panic("webhook: cache is required")
	}

	p := &Processor{
		provider: provider,
		log:      log,
		subs:     subs,
		catalog:  catalog,
		tracker:  tracker,
		cache:    c,
		notifier: notification.NewSlogNotifier(nil),
		logger:   slog.Default(),
		policy:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// effect describes what a successfully applied event changed, so the
// processor knows which post-commit side effects to run.
type effect struct {
	userID        uuid.UUID
	mutated       bool
	planChanged   bool
	periodChanged bool
}

// Process verifies, deduplicates, and applies one webhook delivery.
// The returned error carries detail for logging; the result alone decides
// the acknowledgement.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) (ProcessingResult, error) {
	// Verification must precede parsing so attacker-controlled bytes are
	// never interpreted.
	if err := p.provider.VerifySignature(ctx, payload, signature); err != nil {
		return ResultRejected, errors.Join(billing.ErrSignatureInvalid, err)
	}

	env, err := ParseEnvelope(payload)
	if err != nil {
		return ResultRejected, err
	}

	rec, err := p.log.Begin(ctx, env.EventID, env.EventType)
	if err != nil {
		return ResultFailed, errors.Join(ErrFailedToProcessEvent, err)
	}

	switch rec.Status {
	case EventProcessed:
		return ResultDuplicateIgnored, nil
	case EventFailedPermanent:
		// Acknowledge so the provider stops redelivering a poisoned event.
		p.logger.WarnContext(ctx, "webhook: redelivery of permanently failed event ignored",
			"event_id", env.EventID, "event_type", string(env.EventType))
		return ResultDuplicateIgnored, nil
	}

	if !env.EventType.Known() {
		// Acknowledged no-op: mark processed so the provider stops retrying.
		if err := p.log.MarkProcessed(ctx, env.EventID); err != nil {
			return ResultFailed, errors.Join(ErrFailedToProcessEvent, err)
		}
		p.logger.InfoContext(ctx, "webhook: unknown event type acknowledged",
			"event_id", env.EventID, "event_type", string(env.EventType))
		return ResultProcessed, nil
	}

	userID, err := uuid.Parse(env.Data.UserID)
	if err != nil {
		// The payload passed verification but carries garbage; retrying
		// cannot fix it.
		if merr := p.log.MarkFailed(ctx, env.EventID, "invalid user id", true); merr != nil {
			return ResultFailed, errors.Join(ErrFailedToProcessEvent, merr)
		}
		return ResultRejected, ErrMalformedPayload
	}

	eff, err := p.dispatch(ctx, userID, env)
	if err != nil {
		if subscription.IsInvalidTransitionError(err) {
			// The state machine rejected the transition; the subscription
			// keeps its status and the event is finalized so the provider
			// stops redelivering. The anomaly is surfaced for review.
			p.logger.WarnContext(ctx, "webhook: transition rejected",
				"event_id", env.EventID, "event_type", string(env.EventType),
				"user_id", userID.String(), "error", err)
			if merr := p.log.MarkProcessed(ctx, env.EventID); merr != nil {
				return ResultFailed, errors.Join(ErrFailedToProcessEvent, merr)
			}
			return ResultProcessed, nil
		}
		return p.failEvent(ctx, env, rec, userID, err)
	}

	if err := p.log.MarkProcessed(ctx, env.EventID); err != nil {
		return ResultFailed, errors.Join(ErrFailedToProcessEvent, err)
	}

	p.runSideEffects(ctx, env, eff)
	return ResultProcessed, nil
}

// failEvent records a handler failure, marking it permanent once the delivery
// budget is exhausted and alerting operators in that case.
func (p *Processor) failEvent(ctx context.Context, env Envelope, rec EventRecord, userID uuid.UUID, cause error) (ProcessingResult, error) {
	permanent := p.policy.Exhausted(rec.Attempts)
	if merr := p.log.MarkFailed(ctx, env.EventID, cause.Error(), permanent); merr != nil {
		return ResultFailed, errors.Join(ErrFailedToProcessEvent, cause, merr)
	}

	if !permanent && p.policy.Backoff != nil {
		p.logger.WarnContext(ctx, "webhook: event failed, awaiting redelivery",
			"event_id", env.EventID, "event_type", string(env.EventType),
			"attempt", rec.Attempts, "suggested_retry_in", p.policy.Backoff.NextInterval(rec.Attempts))
	}

	if permanent {
		p.logger.ErrorContext(ctx, "webhook: event failed permanently",
			"event_id", env.EventID, "event_type", string(env.EventType),
			"attempts", rec.Attempts, "error", cause)
		if nerr := p.notifier.Notify(ctx, userID, notification.AlertEventFailedPermanent, map[string]any{
			"event_id":   env.EventID,
			"event_type": string(env.EventType),
			"attempts":   rec.Attempts,
			"error":      cause.Error(),
		}); nerr != nil {
			p.logger.WarnContext(ctx, "webhook: failed-permanent alert delivery failed",
				"event_id", env.EventID, "error", nerr)
		}
	}
	return ResultFailed, errors.Join(ErrFailedToProcessEvent, cause)
}

// dispatch routes the event to its handler, retrying a bounded number of
// times when a concurrent writer wins the revision race. Handlers reload the
// subscription on every attempt, so a retry always sees fresh state.
func (p *Processor) dispatch(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	handler, err := p.handlerFor(env.EventType)
	if err != nil {
		return effect{}, err
	}

	var eff effect
	for attempt := 0; attempt < defaultCASRetries; attempt++ {
		eff, err = handler(ctx, userID, env)
		if !errors.Is(err, subscription.ErrConcurrencyConflict) {
			return eff, err
		}
	}
	return effect{}, errors.Join(subscription.ErrConcurrencyConflict, err)
}

type eventHandler func(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error)

func (p *Processor) handlerFor(t EventType) (eventHandler, error) {
	switch t {
	case EventSubscriptionCreated:
		return p.handleSubscriptionCreated, nil
	case EventSubscriptionUpdated:
		return p.handleSubscriptionUpdated, nil
	case EventSubscriptionDeleted:
		return p.handleSubscriptionDeleted, nil
	case EventPaymentSucceeded:
		return p.handlePaymentSucceeded, nil
	case EventPaymentFailed:
		return p.handlePaymentFailed, nil
	default:
		return nil, ErrHandlerNotFound
	}
}

func (p *Processor) handleSubscriptionCreated(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	if err := p.validatePlan(ctx, env.Data.PlanID); err != nil {
		return effect{}, err
	}

	if _, err := p.subs.Get(ctx, userID); err == nil {
		// The provider replayed creation for an existing record (new event
		// ID, same intent). Apply it as an update so the outcome converges.
		p.logger.WarnContext(ctx, "webhook: created event for existing subscription, applying as update",
			"user_id", userID.String(), "event_id", env.EventID)
		return p.handleSubscriptionUpdated(ctx, userID, env)
	} else if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return effect{}, err
	}

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		UserID:        userID,
		PlanID:        env.Data.PlanID,
		Status:        subscription.StatusIncomplete,
		ProviderSubID: env.Data.SubscriptionID,
		PeriodStart:   env.Data.PeriodStart,
		PeriodEnd:     env.Data.PeriodEnd,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, subscription.ErrSubscriptionAlreadyExists) {
			// Lost a creation race; converge through the update path.
			return p.handleSubscriptionUpdated(ctx, userID, env)
		}
		return effect{}, err
	}

	event := subscription.EventActivate
	if subscription.Status(env.Data.Status) == subscription.StatusTrialing {
		event = subscription.EventStartTrial
	}
	next, err := subscription.NextStatus(sub.Status, event)
	if err != nil {
		return effect{}, err
	}
	sub.Status = next
	sub.UpdatedAt = time.Now().UTC()
	if err := p.subs.UpdateCAS(ctx, sub, sub.Revision); err != nil {
		return effect{}, err
	}

	return effect{userID: userID, mutated: true, planChanged: true, periodChanged: true}, nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	if err := p.validatePlan(ctx, env.Data.PlanID); err != nil {
		return effect{}, err
	}

	sub, err := p.subs.Get(ctx, userID)
	if err != nil {
		return effect{}, err
	}

	eff := effect{userID: userID}
	target := subscription.Status(env.Data.Status)
	if target != "" && target != sub.Status {
		event, ok := transitionEventFor(target)
		if !ok {
			return effect{}, fmt.Errorf("%w: unknown target status %q", ErrMalformedPayload, env.Data.Status)
		}
		// The table is the authority: the resulting status may differ from
		// the provider's claim when intermediate steps were skipped.
		next, err := subscription.NextStatus(sub.Status, event)
		if err != nil {
			return effect{}, err
		}
		sub.Status = next
		eff.mutated = true
	}

	if env.Data.PlanID != "" && env.Data.PlanID != sub.PlanID {
		sub.PlanID = env.Data.PlanID
		eff.mutated = true
		eff.planChanged = true
	}
	if !env.Data.PeriodStart.IsZero() && !env.Data.PeriodStart.Equal(sub.PeriodStart) {
		sub.PeriodStart = env.Data.PeriodStart
		sub.PeriodEnd = env.Data.PeriodEnd
		eff.mutated = true
		eff.periodChanged = true
	}
	if env.Data.SubscriptionID != "" {
		sub.ProviderSubID = env.Data.SubscriptionID
	}

	if !eff.mutated {
		return eff, nil
	}

	sub.UpdatedAt = time.Now().UTC()
	if err := p.subs.UpdateCAS(ctx, sub, sub.Revision); err != nil {
		return effect{}, err
	}
	return eff, nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	sub, err := p.subs.Get(ctx, userID)
	if err != nil {
		return effect{}, err
	}

	next, err := subscription.NextStatus(sub.Status, subscription.EventCancel)
	if err != nil {
		return effect{}, err
	}

	now := time.Now().UTC()
	sub.Status = next
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	if err := p.subs.UpdateCAS(ctx, sub, sub.Revision); err != nil {
		return effect{}, err
	}
	return effect{userID: userID, mutated: true}, nil
}

func (p *Processor) handlePaymentSucceeded(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	sub, err := p.subs.Get(ctx, userID)
	if err != nil {
		return effect{}, err
	}

	eff := effect{userID: userID}
	if sub.Status != subscription.StatusActive {
		next, err := subscription.NextStatus(sub.Status, subscription.EventActivate)
		if err != nil {
			return effect{}, err
		}
		sub.Status = next
		eff.mutated = true
	}

	// A successful charge on an active subscription rolls the billing period.
	if !env.Data.PeriodStart.IsZero() && !env.Data.PeriodStart.Equal(sub.PeriodStart) {
		sub.PeriodStart = env.Data.PeriodStart
		sub.PeriodEnd = env.Data.PeriodEnd
		eff.mutated = true
		eff.periodChanged = true
	}

	if !eff.mutated {
		return eff, nil
	}

	sub.UpdatedAt = time.Now().UTC()
	if err := p.subs.UpdateCAS(ctx, sub, sub.Revision); err != nil {
		return effect{}, err
	}
	return eff, nil
}

func (p *Processor) handlePaymentFailed(ctx context.Context, userID uuid.UUID, env Envelope) (effect, error) {
	sub, err := p.subs.Get(ctx, userID)
	if err != nil {
		return effect{}, err
	}

	next, err := subscription.NextStatus(sub.Status, subscription.EventPaymentFailed)
	if err != nil {
		return effect{}, err
	}

	sub.Status = next
	sub.UpdatedAt = time.Now().UTC()
	if err := p.subs.UpdateCAS(ctx, sub, sub.Revision); err != nil {
		return effect{}, err
	}
	return effect{userID: userID, mutated: true}, nil
}

// validatePlan checks the plan against the local catalog and confirms the
// provider still sells the price. A catalog miss is retryable: catalogs are
// deployed separately and may lag the provider.
func (p *Processor) validatePlan(ctx context.Context, planID string) error {
	if planID == "" {
		return nil
	}
	if _, err := p.catalog.Plan(planID); err != nil {
		return err
	}
	if _, err := p.provider.GetPrice(ctx, planID); err != nil {
		// Advisory check; the catalog already vouched for the plan.
		p.logger.WarnContext(ctx, "webhook: provider price lookup failed",
			"plan_id", planID, "error", err)
	}
	return nil
}

// runSideEffects performs the post-commit cache and usage maintenance. These
// are soft-fail: the subscription write already landed, and stale cache
// entries age out via revision checks and TTLs.
func (p *Processor) runSideEffects(ctx context.Context, env Envelope, eff effect) {
	if !eff.mutated {
		return
	}

	if err := p.cache.InvalidatePrefix(ctx, cache.UserPrefix(eff.userID)); err != nil {
		p.logger.WarnContext(ctx, "webhook: cache invalidation failed",
			"user_id", eff.userID.String(), "event_id", env.EventID, "error", err)
	}

	if eff.planChanged || eff.periodChanged {
		if err := p.tracker.ResetPeriod(ctx, eff.userID); err != nil {
			p.logger.WarnContext(ctx, "webhook: usage period reset failed",
				"user_id", eff.userID.String(), "event_id", env.EventID, "error", err)
		}
	}
}

// transitionEventFor maps a provider-reported target status to the state
// machine event that drives toward it.
func transitionEventFor(target subscription.Status) (subscription.TransitionEvent, bool) {
	switch target {
	case subscription.StatusActive:
		return subscription.EventActivate, true
	case subscription.StatusTrialing:
		return subscription.EventStartTrial, true
	case subscription.StatusPastDue, subscription.StatusUnpaid:
		return subscription.EventPaymentFailed, true
	case subscription.StatusCanceled:
		return subscription.EventCancel, true
	default:
		return "", false
	}
}
