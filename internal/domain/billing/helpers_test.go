package billing_test

import (
	"profile-app/internal/domain/plans"
	"profile-app/internal/infra/stripe"
)

func fakePrice(id string) stripe.Price {
	e, ok := plans.ByPriceID(id)
	if !ok {
		return stripe.Price{ID: id}
	}
	return stripe.Price{ID: id, ProductName: e.DisplayName, Currency: plans.Currency, UnitAmount: e.Amount, Interval: string(e.Interval)}
}
