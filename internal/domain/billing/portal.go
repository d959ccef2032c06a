package billing

import (
	"context"
	"errors"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/users"

	"gorm.io/gorm"
)

// PortalURL opens a Stripe billing portal session for the user's customer.
func (s *CheckoutService) PortalURL(ctx context.Context, userID uint) (string, error) {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newError(KindUnauthenticated, CodeUserNotFound, "user not found", ErrUserNotFound)
		}
		return "", newError(KindInternal, CodeInternal, "failed to load user", err)
	}
	if u.StripeCustomerID == nil || *u.StripeCustomerID == "" {
		return "", newError(KindValidation, CodeNoCustomer, "no billing account exists for this user", nil)
	}

	url, err := s.gateway.CreatePortalSession(ctx, *u.StripeCustomerID, s.appURL+"/dashboard/subscription")
	if err != nil {
		return "", newError(KindExternal, CodePaymentProvider, "failed to create billing portal session", err)
	}
	return url, nil
}

// CatalogMismatch describes one catalog entry whose Stripe price is missing or differs.
type CatalogMismatch struct {
	PriceID string `json:"price_id"`
	Plan    string `json:"plan"`
	Problem string `json:"problem"`
	Want    int64  `json:"want_amount"`
	Got     int64  `json:"got_amount,omitempty"`
}

// VerifyCatalog compares the static plan catalog with the active prices on the Stripe account.
func (s *CheckoutService) VerifyCatalog(ctx context.Context) ([]CatalogMismatch, error) {
	prices, err := s.gateway.ListActivePrices(ctx)
	if err != nil {
		return nil, newError(KindExternal, CodePaymentProvider, "failed to list prices", err)
	}
	byID := make(map[string]int64, len(prices))
	currency := make(map[string]string, len(prices))
	for _, p := range prices {
		byID[p.ID] = p.UnitAmount
		currency[p.ID] = p.Currency
	}

	out := []CatalogMismatch{}
	for _, e := range plans.All() {
		got, ok := byID[e.PriceID]
		switch {
		case !ok:
			out = append(out, CatalogMismatch{PriceID: e.PriceID, Plan: e.StorageKey(), Problem: "missing", Want: e.Amount})
		case got != e.Amount:
			out = append(out, CatalogMismatch{PriceID: e.PriceID, Plan: e.StorageKey(), Problem: "amount_mismatch", Want: e.Amount, Got: got})
		case currency[e.PriceID] != plans.Currency:
			out = append(out, CatalogMismatch{PriceID: e.PriceID, Plan: e.StorageKey(), Problem: "currency_mismatch", Want: e.Amount, Got: got})
		}
	}
	return out, nil
}
