package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/customer"
	"github.com/stripe/stripe-go/v75/price"
)

// client is the Stripe SDK-backed Gateway.
type client struct{}

// NewClient sets the SDK key once and returns the SDK-backed Gateway.
func NewClient(secretKey string) Gateway {
	stripe.Key = secretKey
	return client{}
}

func (client) CreateCustomer(ctx context.Context, email string, userID uint) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": fmt.Sprint(userID),
		},
	}
	params.Context = ctx

	cus, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return cus.ID, nil
}

func (client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:          stripe.String(req.CustomerID),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
	}
	params.Context = ctx

	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(li.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL, AmountTotal: s.AmountTotal}, nil
}

func (client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	portal, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create billing portal session: %w", err)
	}
	return portal.URL, nil
}

func (client) ListActivePrices(ctx context.Context) ([]Price, error) {
	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Context = ctx
	params.AddExpand("data.product")

	var out []Price
	it := price.List(params)
	for it.Next() {
		p := it.Price()
		if !p.Active {
			continue
		}
		name := ""
		if p.Product != nil {
			name = p.Product.Name
		}
		interval := ""
		if p.Recurring != nil {
			interval = string(p.Recurring.Interval)
		}
		out = append(out, Price{
			ID:          p.ID,
			ProductName: name,
			Currency:    string(p.Currency),
			UnitAmount:  p.UnitAmount,
			Interval:    interval,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list prices: %w", err)
	}
	return out, nil
}
