package webhook

import (
	"context"
	"time"
)

// EventStatus is the processing state of a received event.
type EventStatus string

const (
	EventPending         EventStatus = "pending"
	EventProcessed       EventStatus = "processed"
	EventFailed          EventStatus = "failed"
	EventFailedPermanent EventStatus = "failed_permanent"
)

// EventRecord is the durable trace of an externally received event, keyed by
// the provider's event ID. It is the idempotency anchor: an event ID is
// processed with effect at most once.
type EventRecord struct {
	EventID    string
	Type       EventType
	ReceivedAt time.Time
	Status     EventStatus
	Attempts   int // delivery attempts observed so far
	LastError  string
}

// EventLog persists event records for idempotency and audit. Records are
// retained for a bounded window and pruned afterwards.
type EventLog interface {
	// Begin registers a delivery attempt. On first sight it creates a
	// pending record; on replay it returns the existing record with
	// Attempts already incremented. The returned record's Status tells the
	// processor whether to short-circuit.
	Begin(ctx context.Context, eventID string, eventType EventType) (EventRecord, error)

	// MarkProcessed finalizes the event as processed with effect.
	MarkProcessed(ctx context.Context, eventID string) error

	// MarkFailed records a handler failure. Permanent failures are excluded
	// from further processing and surfaced for operator review.
	MarkFailed(ctx context.Context, eventID string, cause string, permanent bool) error

	// Get returns the record for an event ID, or ErrEventNotFound.
	Get(ctx context.Context, eventID string) (EventRecord, error)

	// PruneBefore deletes records received before t, returning the count.
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}
