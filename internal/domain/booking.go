package domain

import "time"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	BookingPaymentPending   BookingPaymentStatus = "pending"
	BookingPaymentCompleted BookingPaymentStatus = "completed"
	BookingPaymentFailed    BookingPaymentStatus = "failed"
)

// Booking is a purchased service instance (tour, activity). The payment core
// reads it to validate existence/amount and writes PaymentStatus/Status as
// part of a settlement transaction; everything else belongs to the booking
// subsystem.
type Booking struct {
	ID            int64                `gorm:"primaryKey" json:"id"`
	BookingNumber string               `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_number"`
	UserID        int64                `gorm:"index;not null" json:"user_id"`
	ServiceID     int64                `gorm:"index;not null" json:"service_id"`
	ServiceName   string               `gorm:"type:varchar(255)" json:"service_name"`
	StartTime     time.Time            `json:"start_time" validate:"required"`
	Guests        int                  `json:"guests"`
	TotalPrice    int64                `json:"total_price" validate:"required,gte=0"`
	Status        BookingStatus        `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus BookingPaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	Notes         string               `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Booking) TableName() string { return "bookings" }
