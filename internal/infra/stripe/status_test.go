package stripe

import (
	"testing"

	"profile-app/internal/domain/subscriptions"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]subscriptions.Status{
		"active":             subscriptions.StatusActive,
		"trialing":           subscriptions.StatusTrialing,
		"past_due":           subscriptions.StatusPastDue,
		"unpaid":             subscriptions.StatusPastDue,
		"paused":             subscriptions.StatusPastDue,
		"canceled":           subscriptions.StatusCanceled,
		"incomplete_expired": subscriptions.StatusCanceled,
		"incomplete":         subscriptions.StatusPending,
	}
	for in, want := range cases {
		got, ok := NormalizeStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeStatus("mystery")
	assert.False(t, ok)
}
