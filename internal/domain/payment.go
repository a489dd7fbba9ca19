package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether no further gateway-driven transition is legal.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// Payment is one payment attempt against a booking. A booking may accumulate
// several rows over its life (retry after failure) but at most one should be
// completed. Rows are created when an order is initiated with a provider and
// mutated only by the settlement path; never deleted.
type Payment struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	BookingID      int64         `gorm:"index;not null" json:"booking_id"`
	Provider       string        `gorm:"type:varchar(20);not null;index" json:"provider"`
	Amount         int64         `gorm:"not null" json:"amount"`
	GatewayOrderID string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"gateway_order_id"`
	GatewayTxnID   string        `gorm:"type:varchar(64)" json:"gateway_txn_id"`
	Status         PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Description    string        `gorm:"type:text" json:"description"`
	RawResponse    string        `gorm:"type:text" json:"raw_response"`
	FailureReason  string        `gorm:"type:text" json:"failure_reason"`
	RefundAmount   int64         `json:"refund_amount"`
	RefundReason   string        `gorm:"type:text" json:"refund_reason"`
	RefundedAt     *time.Time    `json:"refunded_at,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
