package billing_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"
	"profile-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var eventTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func subscriptionEvent(id string, typ billing.EventType, customer, status, priceID string) billing.Event {
	return billing.Event{
		ID:         id,
		Type:       typ,
		CreatedAt:  eventTime,
		CustomerID: customer,
		Subscription: &billing.SubscriptionPayload{
			SubscriptionID:     "sub_123",
			Status:             status,
			PriceID:            priceID,
			CurrentPeriodStart: eventTime,
			CurrentPeriodEnd:   eventTime.AddDate(0, 1, 0),
		},
	}
}

func loadSub(t *testing.T, db *gorm.DB, userID uint) subscriptions.Subscription {
	t.Helper()
	var sub subscriptions.Subscription
	require.NoError(t, db.Where("user_id = ?", userID).First(&sub).Error)
	return sub
}

func loadUser(t *testing.T, db *gorm.DB, id uint) users.User {
	t.Helper()
	var u users.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func loadTenant(t *testing.T, db *gorm.DB, adminID uint) tenants.CorporateTenant {
	t.Helper()
	var tn tenants.CorporateTenant
	require.NoError(t, db.Where("admin_id = ?", adminID).First(&tn).Error)
	return tn
}

func ledger(t *testing.T, db *gorm.DB, eventID string) billing.WebhookEvent {
	t.Helper()
	var rec billing.WebhookEvent
	require.NoError(t, db.Where("event_id = ?", eventID).First(&rec).Error)
	return rec
}

func TestCorporateCheckoutThenSubscriptionCreated(t *testing.T) {
	db, _, svc := newCheckout(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, db, "u1@example.com", nil)

	res, err := svc.Start(ctx, billing.CheckoutRequest{UserID: u1.ID, Plan: "business", Interval: "month", Corporate: true})
	require.NoError(t, err)

	sub := loadSub(t, db, u1.ID)
	assert.Equal(t, subscriptions.StatusPending, sub.Status)
	assert.Equal(t, res.SessionID, sub.SubscriptionID)

	require.Equal(t, int64(1), count(t, db, &tenants.CorporateTenant{}))
	tn := loadTenant(t, db, u1.ID)
	assert.Equal(t, 30, tn.MaxUsers)
	assert.Equal(t, tenants.AccountSuspended, tn.AccountStatus)
	assert.Equal(t, tenants.SuspensionPendingPayment, tn.SuspensionReason)
	require.NotNil(t, tn.SubscriptionID)
	assert.Equal(t, sub.ID, *tn.SubscriptionID)

	customer := *loadUser(t, db, u1.ID).StripeCustomerID
	ev := subscriptionEvent("evt_created", billing.EventSubscriptionCreated, customer, "active", "price_business_monthly")
	require.NoError(t, rec.Handle(ctx, ev))

	sub = loadSub(t, db, u1.ID)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, "sub_123", sub.SubscriptionID)
	assert.Equal(t, "business", sub.Plan)

	assert.Equal(t, int64(1), count(t, db, &tenants.CorporateTenant{}))
	tn = loadTenant(t, db, u1.ID)
	assert.Equal(t, tenants.AccountActive, tn.AccountStatus)
	assert.Empty(t, tn.SuspensionReason)

	u := loadUser(t, db, u1.ID)
	assert.Equal(t, users.StatusActive, u.SubscriptionStatus)
	assert.Equal(t, users.RoleAdmin, u.CorporateRole)

	assert.Equal(t, billing.EventProcessed, ledger(t, db, "evt_created").Status)
}

func TestSubscriptionCreatedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})

	ev := subscriptionEvent("evt_1", billing.EventSubscriptionCreated, "cus_u1", "active", "price_starter_yearly")
	require.NoError(t, rec.Handle(ctx, ev))
	first := loadSub(t, db, u.ID)
	firstTenant := loadTenant(t, db, u.ID)

	// Same delivery again, then the same payload under a fresh event id.
	require.NoError(t, rec.Handle(ctx, ev))
	ev.ID = "evt_2"
	require.NoError(t, rec.Handle(ctx, ev))

	second := loadSub(t, db, u.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, "starter_yearly", second.Plan)
	assert.True(t, first.CurrentPeriodEnd.Equal(*second.CurrentPeriodEnd))

	assert.Equal(t, int64(1), count(t, db, &subscriptions.Subscription{}))
	assert.Equal(t, int64(1), count(t, db, &tenants.CorporateTenant{}))
	assert.Equal(t, firstTenant.ID, loadTenant(t, db, u.ID).ID)
	assert.Equal(t, 10, firstTenant.MaxUsers)

	assert.Equal(t, 1, ledger(t, db, "evt_1").Attempts)
}

func TestUnknownCustomerIsRecordedAsFailure(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)

	ev := subscriptionEvent("evt_lost", billing.EventSubscriptionUpdated, "cus_nobody", "active", "price_personal_monthly")
	err := rec.Handle(context.Background(), ev)
	require.ErrorIs(t, err, billing.ErrUserNotFound)

	row := ledger(t, db, "evt_lost")
	assert.Equal(t, billing.EventFailed, row.Status)
	assert.Contains(t, row.Error, "user not found")

	// A retry is attempted again rather than short-circuited.
	require.ErrorIs(t, rec.Handle(context.Background(), ev), billing.ErrUserNotFound)
	assert.Equal(t, 2, ledger(t, db, "evt_lost").Attempts)
	assert.Zero(t, count(t, db, &subscriptions.Subscription{}))
}

func TestCheckoutCompletedSelfHealsMissingRows(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	u := testutil.CreateUser(t, db, "u1@example.com", nil)

	ev := billing.Event{
		ID:                "evt_cs",
		Type:              billing.EventCheckoutCompleted,
		CreatedAt:         eventTime,
		CustomerID:        "cus_new",
		ClientReferenceID: strconv.FormatUint(uint64(u.ID), 10),
		Checkout: &billing.CheckoutPayload{
			SessionID:     "cs_orphan",
			PaymentStatus: "paid",
			AmountTotal:   33000,
			Metadata:      map[string]string{"plan_key": "starter_yearly"},
		},
	}
	require.NoError(t, rec.Handle(context.Background(), ev))

	sub := loadSub(t, db, u.ID)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, "cs_orphan", sub.SubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.CurrentPeriodEnd.Equal(eventTime.AddDate(1, 0, 0)))

	var order billing.Order
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_orphan").First(&order).Error)
	assert.Equal(t, billing.OrderPaid, order.Status)

	reloaded := loadUser(t, db, u.ID)
	assert.Equal(t, users.StatusActive, reloaded.SubscriptionStatus)
	require.NotNil(t, reloaded.StripeCustomerID)
	assert.Equal(t, "cus_new", *reloaded.StripeCustomerID)

	tn := loadTenant(t, db, u.ID)
	assert.Equal(t, 10, tn.MaxUsers)
	assert.Equal(t, tenants.AccountActive, tn.AccountStatus)
}

func TestCheckoutCompletedWaitsForAsyncPayment(t *testing.T) {
	db, _, svc := newCheckout(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", nil)

	res, err := svc.Start(ctx, billing.CheckoutRequest{UserID: u.ID, Plan: "personal"})
	require.NoError(t, err)

	ev := billing.Event{
		ID:         "evt_unpaid",
		Type:       billing.EventCheckoutCompleted,
		CreatedAt:  eventTime,
		CustomerID: *loadUser(t, db, u.ID).StripeCustomerID,
		Checkout:   &billing.CheckoutPayload{SessionID: res.SessionID, PaymentStatus: "unpaid"},
	}
	require.NoError(t, rec.Handle(ctx, ev))
	assert.Equal(t, subscriptions.StatusPending, loadSub(t, db, u.ID).Status)

	ev.ID = "evt_async"
	ev.Type = billing.EventCheckoutAsyncSucceeded
	require.NoError(t, rec.Handle(ctx, ev))
	assert.Equal(t, subscriptions.StatusActive, loadSub(t, db, u.ID).Status)
	assert.Zero(t, count(t, db, &tenants.CorporateTenant{}))
}

func TestCheckoutExpiredCancelsPendingState(t *testing.T) {
	db, _, svc := newCheckout(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", nil)

	res, err := svc.Start(ctx, billing.CheckoutRequest{UserID: u.ID, Plan: "starter", Corporate: true})
	require.NoError(t, err)

	require.NoError(t, rec.Handle(ctx, billing.Event{
		ID:        "evt_exp",
		Type:      billing.EventCheckoutExpired,
		CreatedAt: eventTime,
		Checkout:  &billing.CheckoutPayload{SessionID: res.SessionID},
	}))

	assert.Equal(t, subscriptions.StatusCanceled, loadSub(t, db, u.ID).Status)
	var order billing.Order
	require.NoError(t, db.First(&order, res.OrderID).Error)
	assert.Equal(t, billing.OrderExpired, order.Status)
	assert.Equal(t, tenants.AccountSuspended, loadTenant(t, db, u.ID).AccountStatus)

	// The user can start over after an abandoned checkout.
	_, err = svc.Start(ctx, billing.CheckoutRequest{UserID: u.ID, Plan: "starter", Corporate: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, db, &tenants.CorporateTenant{}))
}

func TestSubscriptionDeletedSuspendsTenantAndResubscribeRestores(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_1", billing.EventSubscriptionCreated, "cus_u1", "active", "price_business_monthly")))
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_2", billing.EventSubscriptionDeleted, "cus_u1", "canceled", "price_business_monthly")))

	assert.Equal(t, subscriptions.StatusCanceled, loadSub(t, db, u.ID).Status)
	assert.Equal(t, users.StatusFree, loadUser(t, db, u.ID).SubscriptionStatus)
	tn := loadTenant(t, db, u.ID)
	assert.Equal(t, tenants.AccountSuspended, tn.AccountStatus)
	assert.Equal(t, tenants.SuspensionPendingPayment, tn.SuspensionReason)

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_3", billing.EventSubscriptionCreated, "cus_u1", "active", "price_enterprise_monthly")))
	tn = loadTenant(t, db, u.ID)
	assert.Equal(t, tenants.AccountActive, tn.AccountStatus)
	assert.Equal(t, 50, tn.MaxUsers)
	assert.Equal(t, int64(1), count(t, db, &tenants.CorporateTenant{}))
}

func TestOperatorSuspensionIsNotLiftedByBilling(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})
	require.NoError(t, db.Create(&tenants.CorporateTenant{
		Name:             "Acme",
		AccountStatus:    tenants.AccountSuspended,
		SuspensionReason: tenants.SuspensionOperator,
		MaxUsers:         10,
		AdminID:          u.ID,
	}).Error)

	require.NoError(t, rec.Handle(context.Background(), subscriptionEvent("evt_1", billing.EventSubscriptionUpdated, "cus_u1", "active", "price_business_monthly")))

	tn := loadTenant(t, db, u.ID)
	assert.Equal(t, tenants.AccountSuspended, tn.AccountStatus)
	assert.Equal(t, tenants.SuspensionOperator, tn.SuspensionReason)
	assert.Equal(t, 30, tn.MaxUsers)
}

func TestPermanentStatusIsNeverOverwritten(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "perm@example.com", func(u *users.User) {
		u.SubscriptionStatus = users.StatusPermanent
		u.StripeCustomerID = testutil.Ptr("cus_perm")
	})

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_1", billing.EventSubscriptionCreated, "cus_perm", "active", "price_personal_monthly")))
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_2", billing.EventSubscriptionDeleted, "cus_perm", "canceled", "price_personal_monthly")))

	assert.Equal(t, users.StatusPermanent, loadUser(t, db, u.ID).SubscriptionStatus)
}

func TestIllegalTransitionIsRejectedAndRecorded(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_1", billing.EventSubscriptionCreated, "cus_u1", "active", "price_personal_monthly")))
	err := rec.Handle(ctx, subscriptionEvent("evt_2", billing.EventSubscriptionUpdated, "cus_u1", "incomplete", "price_personal_monthly"))
	require.ErrorIs(t, err, subscriptions.ErrIllegalTransition)

	assert.Equal(t, subscriptions.StatusActive, loadSub(t, db, u.ID).Status)
	assert.Equal(t, billing.EventFailed, ledger(t, db, "evt_2").Status)
}

func TestInvoicePaymentFailedMarksPastDue(t *testing.T) {
	db := testutil.NewDB(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})
	require.NoError(t, db.Create(&subscriptions.Subscription{UserID: u.ID, Status: subscriptions.StatusPending, SubscriptionID: "cs_1"}).Error)

	inv := billing.Event{
		ID:         "evt_inv_1",
		Type:       billing.EventInvoicePaymentFailed,
		CreatedAt:  eventTime,
		CustomerID: "cus_u1",
		Invoice:    &billing.InvoicePayload{InvoiceID: "in_1", SubscriptionID: "sub_123"},
	}
	require.NoError(t, rec.Handle(ctx, inv))
	assert.Equal(t, subscriptions.StatusPending, loadSub(t, db, u.ID).Status, "pending cannot become past_due")

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_sub", billing.EventSubscriptionCreated, "cus_u1", "active", "price_personal_monthly")))
	inv.ID = "evt_inv_2"
	require.NoError(t, rec.Handle(ctx, inv))
	assert.Equal(t, subscriptions.StatusPastDue, loadSub(t, db, u.ID).Status)
	assert.Equal(t, users.StatusActive, loadUser(t, db, u.ID).SubscriptionStatus)
}

func TestCheckoutRefusedWhileStripeSubscriptionIsLive(t *testing.T) {
	db, gw, svc := newCheckout(t)
	rec := billing.NewReconciler(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u1@example.com", func(u *users.User) {
		u.StripeCustomerID = testutil.Ptr("cus_u1")
	})

	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_1", billing.EventSubscriptionCreated, "cus_u1", "active", "price_personal_monthly")))
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_2", billing.EventSubscriptionUpdated, "cus_u1", "past_due", "price_personal_monthly")))

	_, err := svc.Start(ctx, billing.CheckoutRequest{UserID: u.ID, Plan: "personal"})
	requireCode(t, err, billing.KindConflict, billing.CodeSubscriptionActive)
	assert.Empty(t, gw.Sessions)

	sub := loadSub(t, db, u.ID)
	assert.Equal(t, subscriptions.StatusPastDue, sub.Status)
	assert.Equal(t, "sub_123", sub.SubscriptionID)

	// An expiry for a session that never replaced the subscription leaves it alone.
	require.NoError(t, rec.Handle(ctx, billing.Event{
		ID:        "evt_exp",
		Type:      billing.EventCheckoutExpired,
		CreatedAt: eventTime,
		Checkout:  &billing.CheckoutPayload{SessionID: "cs_test_1"},
	}))
	assert.Equal(t, subscriptions.StatusPastDue, loadSub(t, db, u.ID).Status)

	// Stripe keeps driving the same subscription.
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_3", billing.EventSubscriptionUpdated, "cus_u1", "past_due", "price_personal_monthly")))
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_4", billing.EventSubscriptionUpdated, "cus_u1", "active", "price_personal_monthly")))
	assert.Equal(t, subscriptions.StatusActive, loadSub(t, db, u.ID).Status)

	// Once Stripe ends it, a new checkout is allowed again.
	require.NoError(t, rec.Handle(ctx, subscriptionEvent("evt_5", billing.EventSubscriptionDeleted, "cus_u1", "canceled", "price_personal_monthly")))
	_, err = svc.Start(ctx, billing.CheckoutRequest{UserID: u.ID, Plan: "personal"})
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusPending, loadSub(t, db, u.ID).Status)
}
