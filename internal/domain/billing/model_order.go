package billing

import (
	"strings"
	"time"

	"profile-app/internal/domain/users"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	OrderExpired OrderStatus = "expired"
)

type OrderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Quantity int64  `json:"quantity"`
}

type ShippingInfo struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	Phone      string `json:"phone"`
}

// Complete reports whether every field a courier needs is present. Address2 is optional.
func (s *ShippingInfo) Complete() bool {
	if s == nil {
		return false
	}
	for _, v := range []string{s.Name, s.PostalCode, s.Prefecture, s.Address1, s.Phone} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Order is the local record of one checkout session.
type Order struct {
	ID              uint         `gorm:"primaryKey"`
	UserID          uint         `gorm:"index"`
	User            users.User   `json:"-"`
	Plan            string
	Interval        string
	Corporate       bool
	StripeSessionID string       `gorm:"uniqueIndex"`
	AmountTotal     int64        `gorm:"not null;default:0"`
	Currency        string       `gorm:"type:varchar(3)"`
	Status          OrderStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
	Items           []OrderItem  `gorm:"serializer:json;type:text"`
	Shipping        ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_"`
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
