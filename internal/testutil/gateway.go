package testutil

import (
	"context"
	"fmt"
	"sync"

	"profile-app/internal/infra/stripe"
)

// FakeGateway records calls and returns canned results. Set an Err field to fail that call.
type FakeGateway struct {
	mu sync.Mutex

	CustomerErr error
	SessionErr  error
	PortalErr   error
	PricesErr   error
	Prices      []stripe.Price
	// OnSession runs inside CreateCheckoutSession, after the call is recorded.
	OnSession func(req stripe.CheckoutSessionRequest)

	Customers []string
	Sessions  []stripe.CheckoutSessionRequest
}

var _ stripe.Gateway = (*FakeGateway)(nil)

func (f *FakeGateway) CreateCustomer(_ context.Context, email string, userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CustomerErr != nil {
		return "", f.CustomerErr
	}
	id := fmt.Sprintf("cus_test_%d", userID)
	f.Customers = append(f.Customers, id)
	return id, nil
}

func (f *FakeGateway) CreateCheckoutSession(_ context.Context, req stripe.CheckoutSessionRequest) (stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionErr != nil {
		return stripe.CheckoutSession{}, f.SessionErr
	}
	f.Sessions = append(f.Sessions, req)

	var total int64
	for _, li := range req.LineItems {
		total += li.Amount * li.Quantity
	}
	id := fmt.Sprintf("cs_test_%d", len(f.Sessions))
	if f.OnSession != nil {
		f.OnSession(req)
	}
	return stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id, AmountTotal: total}, nil
}

func (f *FakeGateway) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	if f.PortalErr != nil {
		return "", f.PortalErr
	}
	return "https://billing.stripe.test/" + customerID, nil
}

func (f *FakeGateway) ListActivePrices(context.Context) ([]stripe.Price, error) {
	if f.PricesErr != nil {
		return nil, f.PricesErr
	}
	return f.Prices, nil
}
