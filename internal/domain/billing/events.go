package billing

import "time"

type EventType string

const (
	EventCheckoutCompleted      EventType = "checkout.session.completed"
	EventCheckoutAsyncSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventCheckoutExpired        EventType = "checkout.session.expired"
	EventSubscriptionCreated    EventType = "customer.subscription.created"
	EventSubscriptionUpdated    EventType = "customer.subscription.updated"
	EventSubscriptionDeleted    EventType = "customer.subscription.deleted"
	EventInvoicePaymentFailed   EventType = "invoice.payment_failed"
)

var handledEvents = map[EventType]bool{
	EventCheckoutCompleted:      true,
	EventCheckoutAsyncSucceeded: true,
	EventCheckoutExpired:        true,
	EventSubscriptionCreated:    true,
	EventSubscriptionUpdated:    true,
	EventSubscriptionDeleted:    true,
	EventInvoicePaymentFailed:   true,
}

// Handles reports whether the reconciler acts on t. Everything else is acknowledged and ignored.
func Handles(t EventType) bool {
	return handledEvents[t]
}

// Event is a processor event reduced to the fields the reconciler needs.
// Exactly one of the payload pointers is set.
type Event struct {
	ID                string
	Type              EventType
	CreatedAt         time.Time
	CustomerID        string
	ClientReferenceID string

	Checkout     *CheckoutPayload
	Subscription *SubscriptionPayload
	Invoice      *InvoicePayload
}

type CheckoutPayload struct {
	SessionID     string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

type SubscriptionPayload struct {
	SubscriptionID     string
	Status             string
	PriceID            string
	Metadata           map[string]string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
}

type InvoicePayload struct {
	InvoiceID      string
	SubscriptionID string
}
