package webhook

import "errors"

var (
	// ErrMalformedPayload indicates the request body is not a valid event
	// envelope. Such deliveries are rejected and never retried.
	ErrMalformedPayload = errors.New("webhook: malformed payload")

	// ErrEventNotFound indicates no record exists for the event ID.
	ErrEventNotFound = errors.New("webhook: event not found")

	// ErrHandlerNotFound indicates no handler is registered for the event
	// type. Unknown types are acknowledged without effect, so this error is
	// internal to the dispatch table.
	ErrHandlerNotFound = errors.New("webhook: handler not found")

	// ErrFailedToProcessEvent wraps transient handler failures that the
	// provider should redeliver.
	ErrFailedToProcessEvent = errors.New("webhook: failed to process event")
)
