package subscription

// TransitionEvent is a billing-driven trigger for a subscription status change.
type TransitionEvent string

const (
	EventStartTrial    TransitionEvent = "start_trial"
	EventActivate      TransitionEvent = "activate"
	EventPaymentFailed TransitionEvent = "payment_failed"
	EventCancel        TransitionEvent = "cancel"
)

// transitions is the closed table of valid status changes. Any (status, event)
// pair absent from this table is rejected; the subscription keeps its prior
// status and the attempt is reported as an anomaly by the caller.
var transitions = map[Status]map[TransitionEvent]Status{
	StatusIncomplete: {
		EventStartTrial: StatusTrialing,
		EventActivate:   StatusActive,
	},
	StatusTrialing: {
		EventActivate: StatusActive,
		EventCancel:   StatusCanceled,
	},
	StatusActive: {
		EventPaymentFailed: StatusPastDue,
		EventCancel:        StatusCanceled,
	},
	StatusPastDue: {
		EventActivate:      StatusActive,
		EventPaymentFailed: StatusUnpaid,
	},
	StatusUnpaid: {
		EventActivate: StatusActive,
		EventCancel:   StatusCanceled,
	},
	// StatusCanceled is terminal: no outgoing transitions.
}

// NextStatus computes the resulting status for firing event from the given
// status. Returns an InvalidTransitionError if the table rejects the pair.
func NextStatus(from Status, event TransitionEvent) (Status, error) {
	if outgoing, ok := transitions[from]; ok {
		if to, ok := outgoing[event]; ok {
			return to, nil
		}
	}
	return from, NewInvalidTransitionError(from, event)
}

// CanTransition reports whether the event is valid from the given status.
func CanTransition(from Status, event TransitionEvent) bool {
	_, err := NextStatus(from, event)
	return err == nil
}
