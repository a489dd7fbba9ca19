package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"tourbook/internal/domain"
)

type notificationWriter interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Mailer delivers the confirmation email. The real sender lives outside this
// service; LogMailer stands in for local development and tests.
type Mailer interface {
	SendPaymentConfirmation(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error
	SendPaymentFailed(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error
}

// Dispatcher fans a settled payment transition out to its side effects:
// an in-app notification row, a confirmation email, a follow-up task for
// operators, and a live event on the websocket hub. Failures are logged and
// swallowed; a broken email channel must never fail a webhook ack.
type Dispatcher struct {
	notifs  notificationWriter
	users   userReader
	mailer  Mailer
	hub     *Hub
	loggerf func(format string, args ...interface{})
}

func NewDispatcher(notifs notificationWriter, users userReader, mailer Mailer, hub *Hub, loggerf func(format string, args ...interface{})) *Dispatcher {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Dispatcher{notifs: notifs, users: users, mailer: mailer, hub: hub, loggerf: loggerf}
}

func (d *Dispatcher) PaymentCompleted(ctx context.Context, b *domain.Booking, p *domain.Payment) {
	d.record(ctx, b.UserID, domain.NotifyPaymentCompleted, "Payment received",
		fmt.Sprintf("Your payment of %d VND for booking %s is confirmed.", p.Amount, b.BookingNumber), b, p)

	if d.mailer != nil {
		if u, err := d.users.GetByID(ctx, b.UserID); err == nil {
			if err := d.mailer.SendPaymentConfirmation(ctx, u.Email, b, p); err != nil {
				d.loggerf("level=error msg=confirmation email failed booking=%s err=%v", b.BookingNumber, err)
			}
		}
	}
	d.push("payment.completed", b, p)
}

func (d *Dispatcher) PaymentFailed(ctx context.Context, b *domain.Booking, p *domain.Payment) {
	d.record(ctx, b.UserID, domain.NotifyPaymentFailed, "Payment failed",
		fmt.Sprintf("Your payment for booking %s failed: %s", b.BookingNumber, p.FailureReason), b, p)

	// Operators get a follow-up task so failed settlements are chased, not lost.
	d.record(ctx, b.UserID, domain.NotifyFollowUpTask, "Follow up failed payment",
		fmt.Sprintf("Booking %s payment via %s failed; contact the customer.", b.BookingNumber, p.Provider), b, p)

	if d.mailer != nil {
		if u, err := d.users.GetByID(ctx, b.UserID); err == nil {
			if err := d.mailer.SendPaymentFailed(ctx, u.Email, b, p); err != nil {
				d.loggerf("level=error msg=failure email failed booking=%s err=%v", b.BookingNumber, err)
			}
		}
	}
	d.push("payment.failed", b, p)
}

func (d *Dispatcher) PaymentRefunded(ctx context.Context, b *domain.Booking, p *domain.Payment) {
	d.record(ctx, b.UserID, domain.NotifyPaymentRefunded, "Payment refunded",
		fmt.Sprintf("A refund of %d VND for booking %s was issued.", p.RefundAmount, b.BookingNumber), b, p)
	d.push("payment.refunded", b, p)
}

func (d *Dispatcher) record(ctx context.Context, userID int64, typ, title, body string, b *domain.Booking, p *domain.Payment) {
	data, _ := json.Marshal(map[string]interface{}{
		"booking_id": b.ID,
		"payment_id": p.ID,
		"provider":   p.Provider,
		"order_id":   p.GatewayOrderID,
	})
	n := &domain.Notification{
		UserID:  userID,
		Type:    typ,
		Channel: domain.ChannelInApp,
		Title:   title,
		Body:    body,
		Data:    string(data),
	}
	if err := d.notifs.Create(ctx, n); err != nil {
		d.loggerf("level=error msg=notification write failed type=%s booking=%s err=%v", typ, b.BookingNumber, err)
	}
}

func (d *Dispatcher) push(typ string, b *domain.Booking, p *domain.Payment) {
	if d.hub == nil {
		return
	}
	d.hub.Broadcast(&PaymentEvent{
		Type:          typ,
		Provider:      p.Provider,
		BookingNumber: b.BookingNumber,
		OrderID:       p.GatewayOrderID,
		Amount:        p.Amount,
		Status:        string(p.Status),
	})
}
