package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"profile-app/internal/domain/plans"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/users"
	"profile-app/internal/infra/stripe"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reconciler applies verified Stripe events to local subscription, user and tenant state.
// Every handler is safe to replay.
type Reconciler struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, now: time.Now}
}

// Handle applies ev once. Events already recorded as processed are skipped; every
// other outcome is written to the webhook_events ledger.
func (r *Reconciler) Handle(ctx context.Context, ev Event) error {
	if !Handles(ev.Type) {
		return nil
	}
	logger := log.With().Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Logger()

	if ev.ID != "" {
		var rec WebhookEvent
		err := r.db.WithContext(ctx).
			Where("event_id = ? AND status = ?", ev.ID, EventProcessed).
			First(&rec).Error
		if err == nil {
			logger.Debug().Msg("event already processed")
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check ledger for %s: %w", ev.ID, err)
		}
	}

	err := r.apply(ctx, ev, logger)
	if err != nil {
		logger.Error().Err(err).Msg("webhook event failed")
	} else {
		logger.Info().Msg("webhook event processed")
	}
	if recErr := r.record(ctx, ev, err); recErr != nil {
		logger.Error().Err(recErr).Msg("failed to record webhook event")
	}
	return err
}

func (r *Reconciler) apply(ctx context.Context, ev Event, logger zerolog.Logger) error {
	switch ev.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded:
		return r.checkoutCompleted(ctx, ev, logger)
	case EventCheckoutExpired:
		return r.checkoutExpired(ctx, ev)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.subscriptionChanged(ctx, ev, logger)
	case EventSubscriptionDeleted:
		return r.subscriptionDeleted(ctx, ev, logger)
	case EventInvoicePaymentFailed:
		return r.invoicePaymentFailed(ctx, ev, logger)
	}
	return nil
}

func (r *Reconciler) record(ctx context.Context, ev Event, outcome error) error {
	if ev.ID == "" {
		return nil
	}
	rec := WebhookEvent{
		EventID:  ev.ID,
		Type:     string(ev.Type),
		Status:   EventProcessed,
		Attempts: 1,
	}
	if outcome != nil {
		rec.Status = EventFailed
		rec.Error = outcome.Error()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     rec.Status,
			"error":      rec.Error,
			"attempts":   gorm.Expr("webhook_events.attempts + 1"),
			"updated_at": r.now(),
		}),
	}).Create(&rec).Error
}

func (r *Reconciler) eventTime(ev Event) time.Time {
	if ev.CreatedAt.IsZero() {
		return r.now().UTC()
	}
	return ev.CreatedAt.UTC()
}

// resolveUser finds the local user by Stripe customer id, then by client reference
// or metadata user id. A user found by reference gets the customer id stored.
func resolveUser(tx *gorm.DB, ev Event, metadata map[string]string) (users.User, error) {
	var u users.User
	if ev.CustomerID != "" {
		err := tx.Where("stripe_customer_id = ?", ev.CustomerID).First(&u).Error
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return u, fmt.Errorf("lookup customer %s: %w", ev.CustomerID, err)
		}
	}

	for _, ref := range []string{ev.ClientReferenceID, metadata["user_id"]} {
		id, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		err = tx.First(&u, uint(id)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return u, fmt.Errorf("lookup user %d: %w", id, err)
		}
		if ev.CustomerID != "" && (u.StripeCustomerID == nil || *u.StripeCustomerID == "") {
			if err := tx.Model(&users.User{}).Where("id = ?", u.ID).
				Update("stripe_customer_id", ev.CustomerID).Error; err != nil {
				return u, fmt.Errorf("store customer for user %d: %w", u.ID, err)
			}
			u.StripeCustomerID = &ev.CustomerID
		}
		return u, nil
	}
	return u, fmt.Errorf("%w: customer=%q reference=%q", ErrUserNotFound, ev.CustomerID, ev.ClientReferenceID)
}

func lockSubscription(tx *gorm.DB, userID uint) (subscriptions.Subscription, bool, error) {
	var sub subscriptions.Subscription
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return subscriptions.Subscription{UserID: userID}, false, nil
	}
	if err != nil {
		return sub, false, fmt.Errorf("lock subscription for user %d: %w", userID, err)
	}
	return sub, true, nil
}

// saveSubscription updates an existing row or inserts one, relying on the
// unique user_id index so a concurrent insert never yields two rows.
func saveSubscription(tx *gorm.DB, sub *subscriptions.Subscription, exists bool) error {
	if exists {
		return tx.Save(sub).Error
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(sub).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", sub.UserID).First(sub).Error
}

// setUserStatus never touches permanent license holders.
func setUserStatus(tx *gorm.DB, userID uint, status users.SubscriptionStatus) error {
	return tx.Model(&users.User{}).
		Where("id = ? AND subscription_status <> ?", userID, users.StatusPermanent).
		Update("subscription_status", status).Error
}

func userStatusFor(s subscriptions.Status) (users.SubscriptionStatus, bool) {
	switch s {
	case subscriptions.StatusActive:
		return users.StatusActive, true
	case subscriptions.StatusTrialing:
		return users.StatusTrialing, true
	case subscriptions.StatusCanceled:
		return users.StatusFree, true
	}
	return "", false
}

func isStripeSubscriptionID(id string) bool {
	return strings.HasPrefix(id, "sub_")
}

func planFromMetadata(md map[string]string) (plans.Entry, bool) {
	if k := md["plan_key"]; k != "" {
		if e, err := plans.ParseStorageKey(k); err == nil {
			return e, true
		}
	}
	if t := md["plan"]; t != "" {
		if e, err := plans.ResolveKey(t, md["interval"]); err == nil {
			return e, true
		}
	}
	return plans.Entry{}, false
}

func planFromSubscription(p *SubscriptionPayload, stored string) (plans.Entry, bool) {
	if e, ok := planFromMetadata(p.Metadata); ok {
		return e, true
	}
	if e, ok := plans.ByPriceID(p.PriceID); ok {
		return e, true
	}
	if stored != "" {
		if e, err := plans.ParseStorageKey(stored); err == nil {
			return e, true
		}
	}
	return plans.Entry{}, false
}

func (r *Reconciler) provision(ctx context.Context, userID uint, entry plans.Entry, subRowID uint, logger zerolog.Logger) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := provisionTenant(tx, userID, entry, subRowID)
		if err != nil {
			return err
		}
		logger.Info().Uint("user_id", userID).Uint("tenant_id", t.ID).Int("max_users", t.MaxUsers).Msg("tenant provisioned")
		return nil
	})
	if err != nil {
		return fmt.Errorf("provision tenant for user %d: %w", userID, err)
	}
	return nil
}

func (r *Reconciler) subscriptionChanged(ctx context.Context, ev Event, logger zerolog.Logger) error {
	p := ev.Subscription
	if p == nil {
		return fmt.Errorf("%s: missing subscription payload", ev.Type)
	}
	status, ok := stripe.NormalizeStatus(p.Status)
	if !ok {
		logger.Info().Str("stripe_status", p.Status).Msg("subscription status has no local meaning; ignored")
		return nil
	}

	var (
		sub      subscriptions.Subscription
		entry    plans.Entry
		hasEntry bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, ev, p.Metadata)
		if err != nil {
			return err
		}
		var exists bool
		sub, exists, err = lockSubscription(tx, user.ID)
		if err != nil {
			return err
		}
		if exists {
			if err := subscriptions.Transition(sub.Status, status); err != nil {
				return fmt.Errorf("subscription %d: %w", sub.ID, err)
			}
		}

		entry, hasEntry = planFromSubscription(p, sub.Plan)
		sub.Status = status
		if hasEntry {
			sub.Plan = entry.StorageKey()
			sub.PriceID = entry.PriceID
		} else if p.PriceID != "" {
			sub.PriceID = p.PriceID
		}
		if p.SubscriptionID != "" {
			sub.SubscriptionID = p.SubscriptionID
		}
		if !p.CurrentPeriodStart.IsZero() {
			start := p.CurrentPeriodStart.UTC()
			sub.CurrentPeriodStart = &start
		}
		if !p.CurrentPeriodEnd.IsZero() {
			end := p.CurrentPeriodEnd.UTC()
			sub.CurrentPeriodEnd = &end
		}
		sub.CancelAtPeriodEnd = p.CancelAtPeriodEnd
		sub.CanceledAt = p.CanceledAt
		if err := saveSubscription(tx, &sub, exists); err != nil {
			return fmt.Errorf("save subscription for user %d: %w", user.ID, err)
		}

		if us, ok := userStatusFor(status); ok {
			if err := setUserStatus(tx, user.ID, us); err != nil {
				return fmt.Errorf("update user %d: %w", user.ID, err)
			}
		}
		if status == subscriptions.StatusCanceled {
			if err := suspendForNonPayment(tx, user.ID); err != nil {
				return fmt.Errorf("suspend tenant of user %d: %w", user.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !hasEntry {
		logger.Warn().Uint("user_id", sub.UserID).Str("price_id", p.PriceID).Msg("subscription plan not in catalog; tenant left untouched")
		return nil
	}

	if entry.IsCorporate && (status == subscriptions.StatusActive || status == subscriptions.StatusTrialing) {
		return r.provision(ctx, sub.UserID, entry, sub.ID, logger)
	}
	return nil
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, ev Event, logger zerolog.Logger) error {
	p := ev.Checkout
	if p == nil {
		return fmt.Errorf("%s: missing checkout payload", ev.Type)
	}
	if ev.Type == EventCheckoutCompleted && p.PaymentStatus != "paid" && p.PaymentStatus != "no_payment_required" {
		logger.Info().Str("session_id", p.SessionID).Str("payment_status", p.PaymentStatus).Msg("checkout completed without payment; waiting for async result")
		return nil
	}
	at := r.eventTime(ev)

	var (
		sub      subscriptions.Subscription
		entry    plans.Entry
		hasEntry bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, ev, p.Metadata)
		if err != nil {
			return err
		}

		var order Order
		err = tx.Where("stripe_session_id = ?", p.SessionID).First(&order).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			order = Order{
				UserID:          user.ID,
				StripeSessionID: p.SessionID,
				AmountTotal:     p.AmountTotal,
				Currency:        plans.Currency,
				Status:          OrderPaid,
				PaidAt:          &at,
			}
			if e, ok := planFromMetadata(p.Metadata); ok {
				order.Plan = e.StorageKey()
				order.Interval = string(e.Interval)
				order.Corporate = e.IsCorporate
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("create order for session %s: %w", p.SessionID, err)
			}
		case err != nil:
			return fmt.Errorf("load order for session %s: %w", p.SessionID, err)
		case order.Status != OrderPaid:
			if err := tx.Model(&order).Updates(map[string]interface{}{
				"status":  OrderPaid,
				"paid_at": at,
			}).Error; err != nil {
				return fmt.Errorf("mark order %d paid: %w", order.ID, err)
			}
		}

		var exists bool
		sub, exists, err = lockSubscription(tx, user.ID)
		if err != nil {
			return err
		}

		entry, hasEntry = planFromMetadata(p.Metadata)
		if !hasEntry && order.Plan != "" {
			entry, hasEntry = planFromSubscription(&SubscriptionPayload{}, order.Plan)
		}
		if !hasEntry {
			entry, hasEntry = planFromSubscription(&SubscriptionPayload{}, sub.Plan)
		}
		if !hasEntry {
			return fmt.Errorf("%w: session %s", ErrUnknownPlan, p.SessionID)
		}

		if exists {
			if err := subscriptions.Transition(sub.Status, subscriptions.StatusActive); err != nil {
				return fmt.Errorf("subscription %d: %w", sub.ID, err)
			}
		}
		sub.Status = subscriptions.StatusActive
		sub.Plan = entry.StorageKey()
		sub.PriceID = entry.PriceID
		if !isStripeSubscriptionID(sub.SubscriptionID) {
			sub.SubscriptionID = p.SessionID
			start := at
			end := at.AddDate(0, 1, 0)
			if entry.Interval == plans.IntervalYear {
				end = at.AddDate(1, 0, 0)
			}
			sub.CurrentPeriodStart = &start
			sub.CurrentPeriodEnd = &end
		}
		sub.CancelAtPeriodEnd = false
		sub.CanceledAt = nil
		if err := saveSubscription(tx, &sub, exists); err != nil {
			return fmt.Errorf("save subscription for user %d: %w", user.ID, err)
		}
		if err := setUserStatus(tx, user.ID, users.StatusActive); err != nil {
			return fmt.Errorf("update user %d: %w", user.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if entry.IsCorporate {
		return r.provision(ctx, sub.UserID, entry, sub.ID, logger)
	}
	return nil
}

func (r *Reconciler) checkoutExpired(ctx context.Context, ev Event) error {
	p := ev.Checkout
	if p == nil {
		return fmt.Errorf("%s: missing checkout payload", ev.Type)
	}
	at := r.eventTime(ev)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Order{}).
			Where("stripe_session_id = ? AND status = ?", p.SessionID, OrderPending).
			Update("status", OrderExpired).Error; err != nil {
			return fmt.Errorf("expire order for session %s: %w", p.SessionID, err)
		}
		if err := tx.Model(&subscriptions.Subscription{}).
			Where("subscription_id = ? AND status = ?", p.SessionID, subscriptions.StatusPending).
			Updates(map[string]interface{}{
				"status":      subscriptions.StatusCanceled,
				"canceled_at": at,
			}).Error; err != nil {
			return fmt.Errorf("cancel pending subscription for session %s: %w", p.SessionID, err)
		}
		return nil
	})
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, ev Event, logger zerolog.Logger) error {
	p := ev.Subscription
	if p == nil {
		return fmt.Errorf("%s: missing subscription payload", ev.Type)
	}
	at := r.eventTime(ev)
	if p.CanceledAt != nil {
		at = p.CanceledAt.UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, ev, p.Metadata)
		if err != nil {
			return err
		}
		sub, exists, err := lockSubscription(tx, user.ID)
		if err != nil {
			return err
		}
		if !exists {
			logger.Info().Uint("user_id", user.ID).Msg("no local subscription to cancel")
			return nil
		}
		if isStripeSubscriptionID(sub.SubscriptionID) && p.SubscriptionID != "" && sub.SubscriptionID != p.SubscriptionID {
			logger.Info().Uint("user_id", user.ID).Str("subscription_id", p.SubscriptionID).Msg("deletion for a superseded subscription; ignored")
			return nil
		}

		if sub.Status != subscriptions.StatusCanceled {
			sub.Status = subscriptions.StatusCanceled
			sub.CanceledAt = &at
			sub.CancelAtPeriodEnd = false
			if err := tx.Save(&sub).Error; err != nil {
				return fmt.Errorf("cancel subscription %d: %w", sub.ID, err)
			}
		}
		if err := setUserStatus(tx, user.ID, users.StatusFree); err != nil {
			return fmt.Errorf("update user %d: %w", user.ID, err)
		}
		if err := suspendForNonPayment(tx, user.ID); err != nil {
			return fmt.Errorf("suspend tenant of user %d: %w", user.ID, err)
		}
		return nil
	})
}

func (r *Reconciler) invoicePaymentFailed(ctx context.Context, ev Event, logger zerolog.Logger) error {
	p := ev.Invoice
	if p == nil {
		return fmt.Errorf("%s: missing invoice payload", ev.Type)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, ev, nil)
		if err != nil {
			return err
		}
		sub, exists, err := lockSubscription(tx, user.ID)
		if err != nil || !exists {
			return err
		}
		if p.SubscriptionID != "" && isStripeSubscriptionID(sub.SubscriptionID) && sub.SubscriptionID != p.SubscriptionID {
			return nil
		}
		if !subscriptions.CanTransition(sub.Status, subscriptions.StatusPastDue) {
			logger.Info().Uint("user_id", user.ID).Str("status", string(sub.Status)).Msg("payment failure does not apply to current status")
			return nil
		}
		return tx.Model(&sub).Update("status", subscriptions.StatusPastDue).Error
	})
}
