package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

func TestNextStatus_ValidTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  subscription.Status
		event subscription.TransitionEvent
		want  subscription.Status
	}{
		{subscription.StatusIncomplete, subscription.EventStartTrial, subscription.StatusTrialing},
		{subscription.StatusIncomplete, subscription.EventActivate, subscription.StatusActive},
		{subscription.StatusTrialing, subscription.EventActivate, subscription.StatusActive},
		{subscription.StatusTrialing, subscription.EventCancel, subscription.StatusCanceled},
		{subscription.StatusActive, subscription.EventPaymentFailed, subscription.StatusPastDue},
		{subscription.StatusActive, subscription.EventCancel, subscription.StatusCanceled},
		{subscription.StatusPastDue, subscription.EventActivate, subscription.StatusActive},
		{subscription.StatusPastDue, subscription.EventPaymentFailed, subscription.StatusUnpaid},
		{subscription.StatusUnpaid, subscription.EventActivate, subscription.StatusActive},
		{subscription.StatusUnpaid, subscription.EventCancel, subscription.StatusCanceled},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			got, err := subscription.NextStatus(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, subscription.CanTransition(tt.from, tt.event))
		})
	}
}

func TestNextStatus_RejectedTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  subscription.Status
		event subscription.TransitionEvent
	}{
		{subscription.StatusCanceled, subscription.EventActivate},
		{subscription.StatusCanceled, subscription.EventStartTrial},
		{subscription.StatusCanceled, subscription.EventCancel},
		{subscription.StatusActive, subscription.EventActivate},
		{subscription.StatusActive, subscription.EventStartTrial},
		{subscription.StatusTrialing, subscription.EventPaymentFailed},
		{subscription.StatusPastDue, subscription.EventCancel},
		{subscription.StatusIncomplete, subscription.EventCancel},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			got, err := subscription.NextStatus(tt.from, tt.event)
			require.Error(t, err)
			assert.True(t, subscription.IsInvalidTransitionError(err))
			// Rejected transitions leave the status unchanged.
			assert.Equal(t, tt.from, got)
			assert.False(t, subscription.CanTransition(tt.from, tt.event))
		})
	}
}

func TestStatus_AccessGranting(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.StatusActive.AccessGranting())
	assert.True(t, subscription.StatusTrialing.AccessGranting())
	assert.False(t, subscription.StatusIncomplete.AccessGranting())
	assert.False(t, subscription.StatusPastDue.AccessGranting())
	assert.False(t, subscription.StatusCanceled.AccessGranting())
	assert.False(t, subscription.StatusUnpaid.AccessGranting())
}
