package payment

import (
	"context"
	"time"

	"tourbook/internal/domain"
)

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByNumber(ctx context.Context, number string) (*domain.Booking, error)
}

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByGatewayOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	SettleCompleted(ctx context.Context, orderID, txnID, rawBody string, paidAt time.Time) (bool, domain.PaymentStatus, error)
	SettleFailed(ctx context.Context, orderID, reason, rawBody string) (bool, domain.PaymentStatus, error)
	MarkRefunded(ctx context.Context, orderID string, amount int64, reason string, refundedAt time.Time) (bool, domain.PaymentStatus, error)
}

type eventLedger interface {
	Exists(ctx context.Context, provider, eventKey string) (bool, error)
	Record(ctx context.Context, ev *domain.WebhookEvent) (bool, error)
}

// SideEffectDispatcher fires in response to a settled transition. Implementations
// must tolerate being slow or failing without affecting the settlement itself;
// the facade only invokes it after the ledger has claimed the event.
type SideEffectDispatcher interface {
	PaymentCompleted(ctx context.Context, b *domain.Booking, p *domain.Payment)
	PaymentFailed(ctx context.Context, b *domain.Booking, p *domain.Payment)
	PaymentRefunded(ctx context.Context, b *domain.Booking, p *domain.Payment)
}
