package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tourbook/internal/domain"
)

type Service struct {
	bookings BookingRepository
}

func NewService(bookings BookingRepository) *Service {
	return &Service{bookings: bookings}
}

func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.StartTime.Before(time.Now()) {
		return nil, ErrValidation
	}
	if req.Guests <= 0 || req.UnitPrice <= 0 {
		return nil, ErrValidation
	}

	number, err := newBookingNumber()
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		BookingNumber: number,
		UserID:        req.UserID,
		ServiceID:     req.ServiceID,
		ServiceName:   req.ServiceName,
		StartTime:     req.StartTime,
		Guests:        req.Guests,
		TotalPrice:    req.UnitPrice * int64(req.Guests),
		Status:        domain.BookingPending,
		PaymentStatus: domain.BookingPaymentPending,
		Notes:         req.Notes,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetByNumber(ctx context.Context, userID int64, number string) (*domain.Booking, error) {
	b, err := s.bookings.GetByNumber(ctx, number)
	if err != nil {
		return nil, ErrNotFound
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.GetByUserID(ctx, userID, limit, offset)
}

func newBookingNumber() (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("TB%s%s", time.Now().Format("060102"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}
