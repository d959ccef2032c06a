package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound means no local user matches a Stripe customer or reference id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnknownPlan means an event carried no plan that maps onto the catalog.
	ErrUnknownPlan = errors.New("event does not map to a catalog plan")
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindAuthorization
	KindConflict
	KindExternal
	KindInternal
)

// Stable machine-readable codes returned to API clients.
const (
	CodePlanNotFound         = "plan_not_found"
	CodePlanNotCorporate     = "plan_not_corporate"
	CodeInvalidInterval      = "invalid_interval"
	CodeUnknownItem          = "unknown_item"
	CodeInvalidQuantity      = "invalid_quantity"
	CodeIncompleteShipping   = "incomplete_shipping_info"
	CodePermanentRestriction = "permanent_user_restriction"
	CodeSubscriptionActive   = "subscription_already_active"
	CodeTenantSuspended      = "tenant_suspended"
	CodeCorporateAccess      = "corporate_access_required"
	CodePaymentProvider      = "payment_provider_error"
	CodeUserNotFound         = "user_not_found"
	CodeNoCustomer           = "no_customer"
	CodeInternal             = "internal_error"
)

// Error is a classified failure surfaced to an API caller.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Err: err}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
