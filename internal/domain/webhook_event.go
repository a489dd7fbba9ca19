package domain

import "time"

// WebhookEvent is the durable record of a processed inbound gateway
// notification. EventKey is deterministic (provider + gateway order id +
// transaction id, falling back to the response code for failure events that
// carry no transaction id); the unique index makes concurrent duplicate
// delivery collapse into a single row. Presence of a row is proof the
// corresponding side effects already ran. Rows are immutable once written.
type WebhookEvent struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Provider       string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_webhook_events_identity,priority:1" json:"provider"`
	EventKey       string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_identity,priority:2" json:"event_key"`
	GatewayOrderID string    `gorm:"type:varchar(64);index" json:"gateway_order_id"`
	GatewayTxnID   string    `gorm:"type:varchar(64)" json:"gateway_txn_id"`
	Outcome        string    `gorm:"type:varchar(20)" json:"outcome"`
	RawPayload     string    `gorm:"type:text" json:"raw_payload"`
	CreatedAt      time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
