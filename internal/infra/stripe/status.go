package stripe

import (
	"strings"

	"profile-app/internal/domain/subscriptions"
)

// NormalizeStatus maps a Stripe subscription status onto the local lifecycle.
// ok is false for statuses that carry no lifecycle meaning locally.
func NormalizeStatus(s string) (subscriptions.Status, bool) {
	switch strings.TrimSpace(s) {
	case "active":
		return subscriptions.StatusActive, true
	case "trialing":
		return subscriptions.StatusTrialing, true
	case "past_due", "unpaid", "paused":
		return subscriptions.StatusPastDue, true
	case "canceled", "incomplete_expired":
		return subscriptions.StatusCanceled, true
	case "incomplete":
		return subscriptions.StatusPending, true
	default:
		return "", false
	}
}
