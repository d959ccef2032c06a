package tenants

import "time"

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

// Why a tenant is suspended. Only pending_payment is lifted automatically by billing events.
const (
	SuspensionPendingPayment = "pending_payment"
	SuspensionOperator       = "operator"
)

type CorporateTenant struct {
	ID               uint          `gorm:"primaryKey"`
	Name             string        `gorm:"type:varchar(120)"`
	AccountStatus    AccountStatus `gorm:"type:varchar(20);not null;default:'active'"`
	SuspensionReason string        `gorm:"type:varchar(30)"`
	MaxUsers         int           `gorm:"not null;default:1"`
	// Local subscriptions.Subscription id, not the Stripe id.
	SubscriptionID *uint `gorm:"column:subscription_id;index"`
	AdminID        uint  `gorm:"not null;uniqueIndex:idx_corporate_tenants_admin_id"`

	Departments []Department `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *CorporateTenant) IsSuspended() bool {
	return t != nil && t.AccountStatus == AccountSuspended
}

type Department struct {
	ID        uint   `gorm:"primaryKey"`
	TenantID  uint   `gorm:"not null;index"`
	Name      string `gorm:"type:varchar(120);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
