package stripe

import "context"

// Gateway abstracts the Stripe calls the billing domain needs.
type Gateway interface {
	CreateCustomer(ctx context.Context, email string, userID uint) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ListActivePrices(ctx context.Context) ([]Price, error)
}

type LineItem struct {
	Name     string
	Amount   int64
	Quantity int64
}

type CheckoutSessionRequest struct {
	CustomerID        string
	ClientReferenceID string
	Currency          string
	SuccessURL        string
	CancelURL         string
	LineItems         []LineItem
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID          string
	URL         string
	AmountTotal int64
}

type Price struct {
	ID          string
	ProductName string
	Currency    string
	UnitAmount  int64
	Interval    string
}
