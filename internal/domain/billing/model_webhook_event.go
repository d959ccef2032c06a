package billing

import "time"

type EventRecordStatus string

const (
	EventProcessed EventRecordStatus = "processed"
	EventFailed    EventRecordStatus = "failed"
)

// WebhookEvent is the processing ledger for Stripe deliveries.
type WebhookEvent struct {
	ID        uint              `gorm:"primaryKey"`
	EventID   string            `gorm:"not null;uniqueIndex:idx_webhook_events_event_id"`
	Type      string            `gorm:"type:varchar(80);index"`
	Status    EventRecordStatus `gorm:"type:varchar(20);index"`
	Error     string            `gorm:"type:text"`
	Attempts  int               `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
