package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// AlertType classifies an outbound alert.
type AlertType string

const (
	// AlertUsageThreshold fires once per (user, feature, threshold, period)
	// when usage crosses 80/90/100% of the limit.
	AlertUsageThreshold AlertType = "usage_threshold"

	// AlertEventFailedPermanent fires when a webhook event exhausts its retry
	// budget and needs operator review.
	AlertEventFailedPermanent AlertType = "event_failed_permanent"
)

// Notifier is the outbound notification collaborator. Delivery internals
// (email, chat, pager) live behind this interface and are out of scope for
// the engine.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, alertType AlertType, payload map[string]any) error
}

// SlogNotifier logs alerts instead of delivering them, a sensible default for
// development and for deployments wiring alerts into log-based pipelines.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(ctx context.Context, userID uuid.UUID, alertType AlertType, payload map[string]any) error {
	n.logger.InfoContext(ctx, "notification",
		"user_id", userID.String(),
		"alert_type", string(alertType),
		"payload", payload)
	return nil
}

// Recorded is a single captured alert.
type Recorded struct {
	UserID    uuid.UUID
	AlertType AlertType
	Payload   map[string]any
}

// Recorder captures alerts in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	alerts []Recorded
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, userID uuid.UUID, alertType AlertType, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Recorded{UserID: userID, AlertType: alertType, Payload: payload})
	return nil
}

// Alerts returns a copy of all captured alerts.
func (r *Recorder) Alerts() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.alerts))
	copy(out, r.alerts)
	return out
}
