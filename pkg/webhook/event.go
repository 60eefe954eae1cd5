package webhook

import (
	"encoding/json"
	"time"
)

// EventType tags a billing event on the closed set the processor dispatches
// on. Unknown types are intentionally non-fatal: they are recorded as
// processed so the provider stops redelivering them.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription-created"
	EventSubscriptionUpdated EventType = "subscription-updated"
	EventSubscriptionDeleted EventType = "subscription-deleted"
	EventPaymentSucceeded    EventType = "payment-succeeded"
	EventPaymentFailed       EventType = "payment-failed"
)

// knownEventTypes is the dispatch set; everything else short-circuits.
var knownEventTypes = map[EventType]struct{}{
	EventSubscriptionCreated: {},
	EventSubscriptionUpdated: {},
	EventSubscriptionDeleted: {},
	EventPaymentSucceeded:    {},
	EventPaymentFailed:       {},
}

// Known reports whether the processor has a handler for the type.
func (t EventType) Known() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// Envelope is the provider's JSON event wrapper.
type Envelope struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       EventData `json:"data"`
}

// EventData carries the subscription payload common to all event types.
// Fields irrelevant to a given type are simply absent.
type EventData struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"` // provider price ID
	Status         string    `json:"status"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

// ParseEnvelope decodes a raw webhook payload.
// Signature verification must happen before parsing, never after.
func ParseEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, ErrMalformedPayload
	}
	if env.EventID == "" {
		return Envelope{}, ErrMalformedPayload
	}
	return env, nil
}
