package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"
	"profile-app/internal/infra/stripe"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BundledItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

type CheckoutRequest struct {
	UserID       uint
	Plan         string
	Interval     string
	Corporate    bool
	BundledItems []BundledItem
	Shipping     *ShippingInfo
}

type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
	OrderID     uint   `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
}

// CheckoutService opens Stripe checkout sessions and records the matching pending state.
type CheckoutService struct {
	db      *gorm.DB
	gateway stripe.Gateway
	appURL  string
}

func NewCheckoutService(db *gorm.DB, gateway stripe.Gateway, appURL string) *CheckoutService {
	return &CheckoutService{db: db, gateway: gateway, appURL: appURL}
}

type checkoutPlan struct {
	entry     plans.Entry
	items     []OrderItem
	lineItems []stripe.LineItem
	total     int64
}

// Start validates the request, opens a one-time payment checkout session and then
// writes the pending subscription, the order and (for corporate plans) the tenant in
// one transaction. A Stripe failure leaves no local rows behind. The session is created
// before the user row is locked so no lock is held across the Stripe call.
func (s *CheckoutService) Start(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	cp, err := buildCheckoutPlan(req)
	if err != nil {
		return CheckoutResult{}, err
	}

	var user users.User
	if err := s.db.WithContext(ctx).Preload("Subscription").First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckoutResult{}, newError(KindUnauthenticated, CodeUserNotFound, "user not found", ErrUserNotFound)
		}
		return CheckoutResult{}, newError(KindInternal, CodeInternal, "failed to load user", err)
	}
	if err := checkEligible(user); err != nil {
		return CheckoutResult{}, err
	}

	customerID, err := s.ensureCustomer(ctx, &user)
	if err != nil {
		return CheckoutResult{}, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionRequest{
		CustomerID:        customerID,
		ClientReferenceID: strconv.FormatUint(uint64(user.ID), 10),
		Currency:          plans.Currency,
		SuccessURL:        s.appURL + "/dashboard/subscription?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.appURL + "/dashboard/subscription?checkout=canceled",
		LineItems:         cp.lineItems,
		Metadata: map[string]string{
			"user_id":   strconv.FormatUint(uint64(user.ID), 10),
			"plan":      string(cp.entry.Tier),
			"interval":  string(cp.entry.Interval),
			"plan_key":  cp.entry.StorageKey(),
			"corporate": strconv.FormatBool(req.Corporate),
		},
	})
	if err != nil {
		return CheckoutResult{}, newError(KindExternal, CodePaymentProvider, "failed to create checkout session", err)
	}

	var orderID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked users.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Subscription").
			First(&locked, user.ID).Error; err != nil {
			return newError(KindInternal, CodeInternal, "failed to lock user", err)
		}
		// Re-check under the lock; a webhook may have landed since the first read.
		if err := checkEligible(locked); err != nil {
			log.Warn().
				Uint("user_id", locked.ID).
				Str("session_id", sess.ID).
				Msg("user became ineligible while the checkout session was created; session left to expire")
			return err
		}

		id, err := writePending(tx, locked, cp, sess, req)
		if err != nil {
			// Stripe now holds a session with no local record. The checkout webhook
			// recreates the rows from session metadata if the user pays anyway.
			log.Error().Err(err).
				Uint("user_id", locked.ID).
				Str("session_id", sess.ID).
				Msg("checkout session created but local pending write failed")
			return newError(KindInternal, CodeInternal, "failed to record checkout", err)
		}
		orderID = id
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	total := sess.AmountTotal
	if total == 0 {
		total = cp.total
	}
	log.Info().
		Uint("user_id", user.ID).
		Str("session_id", sess.ID).
		Str("plan", cp.entry.StorageKey()).
		Bool("corporate", req.Corporate).
		Msg("checkout started")
	return CheckoutResult{
		CheckoutURL: sess.URL,
		SessionID:   sess.ID,
		OrderID:     orderID,
		TotalAmount: total,
	}, nil
}

func buildCheckoutPlan(req CheckoutRequest) (checkoutPlan, error) {
	switch plans.Interval(strings.ToLower(strings.TrimSpace(req.Interval))) {
	case "", plans.IntervalMonth, plans.IntervalYear:
	default:
		return checkoutPlan{}, newError(KindValidation, CodeInvalidInterval, fmt.Sprintf("unknown billing interval %q", req.Interval), nil)
	}
	entry, err := plans.ResolveKey(req.Plan, req.Interval)
	if err != nil {
		return checkoutPlan{}, newError(KindValidation, CodePlanNotFound, "unknown plan or interval", err)
	}
	if req.Corporate && !entry.IsCorporate {
		return checkoutPlan{}, newError(KindValidation, CodePlanNotCorporate, "plan is not a corporate plan", nil)
	}

	cp := checkoutPlan{
		entry:     entry,
		lineItems: []stripe.LineItem{{Name: entry.DisplayName, Amount: entry.Amount, Quantity: 1}},
		total:     entry.Amount,
	}

	needsShipping := false
	for _, b := range req.BundledItems {
		it, err := plans.ResolveItem(b.SKU)
		if err != nil {
			return checkoutPlan{}, newError(KindValidation, CodeUnknownItem, fmt.Sprintf("unknown item %q", b.SKU), err)
		}
		if b.Quantity <= 0 {
			return checkoutPlan{}, newError(KindValidation, CodeInvalidQuantity, fmt.Sprintf("invalid quantity for %q", b.SKU), nil)
		}
		needsShipping = needsShipping || it.Shippable
		cp.items = append(cp.items, OrderItem{SKU: it.SKU, Name: it.DisplayName, Amount: it.Amount, Quantity: b.Quantity})
		cp.lineItems = append(cp.lineItems, stripe.LineItem{Name: it.DisplayName, Amount: it.Amount, Quantity: b.Quantity})
		cp.total += it.Amount * b.Quantity
	}
	if needsShipping && !req.Shipping.Complete() {
		return checkoutPlan{}, newError(KindValidation, CodeIncompleteShipping, "shipping information is incomplete", nil)
	}
	return cp, nil
}

func checkEligible(u users.User) error {
	if u.SubscriptionStatus == users.StatusPermanent {
		return newError(KindAuthorization, CodePermanentRestriction, "permanent license holders cannot start a checkout", nil)
	}
	if sub := u.Subscription; sub != nil {
		// A live Stripe subscription is changed in the billing portal; a new checkout
		// would overwrite its id and lose track of it.
		if isStripeSubscriptionID(sub.SubscriptionID) && sub.Status != subscriptions.StatusCanceled {
			return newError(KindConflict, CodeSubscriptionActive, "a subscription is already running; manage it in the billing portal", nil)
		}
		if err := subscriptions.Transition(sub.Status, subscriptions.StatusPending); err != nil {
			return newError(KindConflict, CodeSubscriptionActive, "an active subscription already exists", err)
		}
	}
	return nil
}

// ensureCustomer reuses the stored Stripe customer or creates one. The id is committed
// on its own so a later rollback never orphans a Stripe customer.
func (s *CheckoutService) ensureCustomer(ctx context.Context, u *users.User) (string, error) {
	if u.StripeCustomerID != nil && *u.StripeCustomerID != "" {
		return *u.StripeCustomerID, nil
	}

	id, err := s.gateway.CreateCustomer(ctx, u.Email, u.ID)
	if err != nil {
		return "", newError(KindExternal, CodePaymentProvider, "failed to create payment customer", err)
	}
	if err := s.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", u.ID).
		Update("stripe_customer_id", id).Error; err != nil {
		return "", newError(KindInternal, CodeInternal, "failed to store payment customer", err)
	}
	u.StripeCustomerID = &id
	return id, nil
}

func writePending(tx *gorm.DB, u users.User, cp checkoutPlan, sess stripe.CheckoutSession, req CheckoutRequest) (uint, error) {
	sub := u.Subscription
	if sub == nil {
		sub = &subscriptions.Subscription{UserID: u.ID}
	}
	sub.Status = subscriptions.StatusPending
	sub.Plan = cp.entry.StorageKey()
	sub.PriceID = cp.entry.PriceID
	sub.SubscriptionID = sess.ID
	sub.CurrentPeriodStart = nil
	sub.CurrentPeriodEnd = nil
	sub.CancelAtPeriodEnd = false
	sub.CanceledAt = nil

	if sub.ID == 0 {
		if err := tx.Create(sub).Error; err != nil {
			return 0, fmt.Errorf("create pending subscription: %w", err)
		}
	} else if err := tx.Save(sub).Error; err != nil {
		return 0, fmt.Errorf("update pending subscription: %w", err)
	}

	order := Order{
		UserID:          u.ID,
		Plan:            cp.entry.StorageKey(),
		Interval:        string(cp.entry.Interval),
		Corporate:       req.Corporate,
		StripeSessionID: sess.ID,
		AmountTotal:     cp.total,
		Currency:        plans.Currency,
		Status:          OrderPending,
		Items:           cp.items,
	}
	if req.Shipping != nil {
		order.Shipping = *req.Shipping
	}
	if err := tx.Create(&order).Error; err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}

	if req.Corporate {
		t, created, err := ensureAdminTenant(tx, u, cp.entry, sub.ID, tenants.AccountSuspended, tenants.SuspensionPendingPayment)
		if err != nil {
			return 0, err
		}
		if !created {
			if err := tx.Model(&tenants.CorporateTenant{}).Where("id = ?", t.ID).
				Update("subscription_id", sub.ID).Error; err != nil {
				return 0, fmt.Errorf("link tenant %d: %w", t.ID, err)
			}
		}
	}
	return order.ID, nil
}
