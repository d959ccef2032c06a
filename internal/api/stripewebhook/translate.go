package stripewebhooks

import (
	"encoding/json"
	"fmt"
	"time"

	"profile-app/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// translate reduces a verified Stripe event to the reconciler's Event.
func translate(event stripe.Event) (billing.Event, error) {
	ev := billing.Event{
		ID:        event.ID,
		Type:      billing.EventType(event.Type),
		CreatedAt: unixTime(event.Created),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return ev, fmt.Errorf("event %s has no data object", event.ID)
	}

	switch ev.Type {
	case billing.EventCheckoutCompleted, billing.EventCheckoutAsyncSucceeded, billing.EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return ev, fmt.Errorf("parse checkout session: %w", err)
		}
		if s.ID == "" {
			return ev, fmt.Errorf("checkout session without id")
		}
		ev.CustomerID = customerID(s.Customer)
		ev.ClientReferenceID = s.ClientReferenceID
		ev.Checkout = &billing.CheckoutPayload{
			SessionID:     s.ID,
			PaymentStatus: string(s.PaymentStatus),
			AmountTotal:   s.AmountTotal,
			Metadata:      s.Metadata,
		}

	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return ev, fmt.Errorf("parse subscription: %w", err)
		}
		if s.ID == "" {
			return ev, fmt.Errorf("subscription without id")
		}
		ev.CustomerID = customerID(s.Customer)
		p := &billing.SubscriptionPayload{
			SubscriptionID:     s.ID,
			Status:             string(s.Status),
			Metadata:           s.Metadata,
			CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
			CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
			CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		}
		if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
			p.PriceID = s.Items.Data[0].Price.ID
		}
		if s.CanceledAt > 0 {
			t := unixTime(s.CanceledAt)
			p.CanceledAt = &t
		}
		ev.Subscription = p

	case billing.EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return ev, fmt.Errorf("parse invoice: %w", err)
		}
		ev.CustomerID = customerID(inv.Customer)
		p := &billing.InvoicePayload{InvoiceID: inv.ID}
		if inv.Subscription != nil {
			p.SubscriptionID = inv.Subscription.ID
		}
		ev.Invoice = p

	default:
		return ev, fmt.Errorf("unsupported event type %s", event.Type)
	}
	return ev, nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
