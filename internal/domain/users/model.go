package users

import (
	"time"

	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
)

type SubscriptionStatus string

const (
	StatusFree               SubscriptionStatus = "free"
	StatusTrialing           SubscriptionStatus = "trialing"
	StatusActive             SubscriptionStatus = "active"
	StatusPermanent          SubscriptionStatus = "permanent"
	StatusGracePeriodExpired SubscriptionStatus = "grace_period_expired"
)

type CorporateRole string

const (
	RoleNone   CorporateRole = ""
	RoleAdmin  CorporateRole = "admin"
	RoleMember CorporateRole = "member"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Lastname     string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password     *string `gorm:"" json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role         string

	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(30);not null;default:'free'"`
	TrialStartAt       *time.Time         `gorm:"column:trial_start_at"`
	TrialEndsAt        *time.Time         `gorm:"column:trial_ends_at"`
	StripeCustomerID   *string            `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`

	CorporateRole CorporateRole `gorm:"type:varchar(20)"`
	TenantID      *uint         `gorm:"index"`

	Subscription  *subscriptions.Subscription `gorm:"foreignKey:UserID"`
	Tenant        *tenants.CorporateTenant    `gorm:"foreignKey:TenantID"`
	AdminOfTenant *tenants.CorporateTenant    `gorm:"foreignKey:AdminID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
