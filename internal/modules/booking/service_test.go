package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tourbook/internal/domain"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	b.ID = 11
	return args.Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		ServiceID:   3,
		ServiceName: "Mekong Delta Boat Tour",
		StartTime:   time.Now().Add(72 * time.Hour),
		Guests:      2,
		UnitPrice:   890000,
		UserID:      5,
	}
}

func TestCreateBookingComputesTotal(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewService(repo)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)

	b, err := svc.CreateBooking(context.Background(), validRequest())
	assert.NoError(t, err)
	assert.Equal(t, int64(1780000), b.TotalPrice)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.BookingPaymentPending, b.PaymentStatus)
	assert.True(t, strings.HasPrefix(b.BookingNumber, "TB"))
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	svc := NewService(new(mockBookingRepo))
	req := validRequest()
	req.StartTime = time.Now().Add(-time.Hour)

	_, err := svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBookingRejectsBadAmounts(t *testing.T) {
	svc := NewService(new(mockBookingRepo))

	req := validRequest()
	req.Guests = 0
	_, err := svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)

	req = validRequest()
	req.UnitPrice = -1
	_, err = svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetByNumberEnforcesOwnership(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewService(repo)
	repo.On("GetByNumber", mock.Anything, "TB260314ABC").
		Return(&domain.Booking{ID: 1, BookingNumber: "TB260314ABC", UserID: 5}, nil)

	b, err := svc.GetByNumber(context.Background(), 5, "TB260314ABC")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)

	_, err = svc.GetByNumber(context.Background(), 6, "TB260314ABC")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListMineClampsLimit(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewService(repo)
	repo.On("GetByUserID", mock.Anything, int64(5), 20, 0).Return([]domain.Booking{}, nil)

	_, err := svc.ListMine(context.Background(), 5, 0, 0)
	assert.NoError(t, err)
	_, err = svc.ListMine(context.Background(), 5, 500, 0)
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetByUserID", 2)
}
