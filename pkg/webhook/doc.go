// Package webhook turns billing provider events into subscription state
// changes. It is the single write path for subscription records driven by
// external billing activity.
//
// # Pipeline
//
// Process runs every delivery through the same stages: verify the payload
// signature (reject on failure, before any parsing), decode the envelope,
// deduplicate by provider event ID against the event log, dispatch to the
// handler for the event type, and finalize the log record. The returned
// ProcessingResult tells the HTTP ingress which status code to answer with:
// Processed and DuplicateIgnored acknowledge, Rejected refuses permanently,
// Failed asks the provider to redeliver.
//
// # Idempotency
//
// The event log records every event ID it has seen. A redelivered event whose
// record is already finalized short-circuits to DuplicateIgnored without
// touching subscription state, so provider retries are harmless.
//
// # Concurrency
//
// Handlers never lock. Each attempt loads the subscription, computes the new
// state through the transition table, and writes it back with a revision
// compare-and-swap. A lost race is retried a bounded number of times with
// fresh state; past that, the delivery fails transiently and the provider's
// redelivery schedule takes over.
//
// # Failure Budget
//
// Transient handler failures are retried across deliveries up to
// RetryPolicy.MaxAttempts. An event that exhausts the budget is marked
// failed_permanent, excluded from further processing, and surfaced to
// operators through the notifier.
package webhook
