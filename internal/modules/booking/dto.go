package booking

import "time"

type CreateBookingRequest struct {
	ServiceID   int64     `json:"service_id" binding:"required"`
	ServiceName string    `json:"service_name" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	Guests      int       `json:"guests" binding:"required,gt=0"`
	UnitPrice   int64     `json:"unit_price" binding:"required,gt=0"`
	Notes       string    `json:"notes"`

	UserID int64 `json:"-"`
}
