package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	legal := [][2]Status{
		{StatusPending, StatusActive},
		{StatusPending, StatusTrialing},
		{StatusPending, StatusCanceled},
		{StatusTrialing, StatusActive},
		{StatusTrialing, StatusPastDue},
		{StatusActive, StatusPastDue},
		{StatusActive, StatusCanceled},
		{StatusPastDue, StatusActive},
		{StatusCanceled, StatusPending},
		{StatusCanceled, StatusActive},
	}
	for _, tr := range legal {
		assert.NoError(t, Transition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	illegal := [][2]Status{
		{StatusActive, StatusPending},
		{StatusActive, StatusTrialing},
		{StatusPending, StatusPastDue},
		{StatusCanceled, StatusPastDue},
	}
	for _, tr := range illegal {
		assert.ErrorIs(t, Transition(tr[0], tr[1]), ErrIllegalTransition, "%s -> %s", tr[0], tr[1])
	}
}

func TestSelfTransitionsAreAlwaysLegal(t *testing.T) {
	for s := range transitions {
		assert.True(t, CanTransition(s, s), s)
	}
}

func TestUnknownStatusesAreRejected(t *testing.T) {
	assert.False(t, Status("paused").Valid())
	assert.False(t, CanTransition("paused", StatusActive))
	assert.False(t, CanTransition(StatusActive, "paused"))
}

func TestIsLive(t *testing.T) {
	var nilSub *Subscription
	assert.False(t, nilSub.IsLive())
	assert.True(t, (&Subscription{Status: StatusPastDue}).IsLive())
	assert.False(t, (&Subscription{Status: StatusPending}).IsLive())
}
