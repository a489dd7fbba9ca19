package domain

import "time"

// Notification types emitted by the payment side-effect dispatcher.
const (
	NotifyPaymentCompleted = "payment.completed"
	NotifyPaymentFailed    = "payment.failed"
	NotifyPaymentRefunded  = "payment.refunded"
	NotifyFollowUpTask     = "payment.follow_up"
)

const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Channel   string    `gorm:"type:varchar(20);default:'in_app'" json:"channel"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Data      string    `gorm:"type:text" json:"data"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
