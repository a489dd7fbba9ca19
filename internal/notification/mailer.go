package notification

import (
	"context"
	"log"

	"tourbook/internal/domain"
)

// LogMailer writes would-be emails to the log. Deployments plug a real
// sender behind the Mailer interface.
type LogMailer struct{}

func (LogMailer) SendPaymentConfirmation(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error {
	log.Printf("mail_out kind=payment_confirmation to=%s booking=%s amount=%d provider=%s", to, b.BookingNumber, p.Amount, p.Provider)
	return nil
}

func (LogMailer) SendPaymentFailed(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error {
	log.Printf("mail_out kind=payment_failed to=%s booking=%s reason=%q provider=%s", to, b.BookingNumber, p.FailureReason, p.Provider)
	return nil
}
