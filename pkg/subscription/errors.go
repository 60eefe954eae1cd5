package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")

	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")

	// ErrConcurrencyConflict indicates an optimistic write lost the race: the
	// stored revision no longer matches the revision the writer observed.
	ErrConcurrencyConflict = errors.New("subscription revision conflict")
)

// InvalidTransitionError indicates a status change the transition table
// rejects. The subscription retains its prior status.
type InvalidTransitionError struct {
	From  Status
	Event TransitionEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid subscription transition from %q on event %q", e.From, e.Event)
}

func NewInvalidTransitionError(from Status, event TransitionEvent) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Event: event}
}

func IsInvalidTransitionError(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}
