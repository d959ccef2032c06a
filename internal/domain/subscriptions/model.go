package subscriptions

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Subscription is the local mirror of a user's billing agreement. One row per user.
type Subscription struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_subscriptions_user_id"`
	Status Status `gorm:"type:varchar(20);not null;default:'pending'"`
	Plan   string `gorm:"type:varchar(50)"`

	PriceID string `gorm:"column:price_id"`
	// Holds the checkout session id until Stripe reports a real subscription.
	SubscriptionID string `gorm:"column:subscription_id;index"`

	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLive reports whether the row represents a paid-up or trialing agreement.
func (s *Subscription) IsLive() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	}
	return false
}
