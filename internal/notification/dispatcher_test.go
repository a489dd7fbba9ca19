package notification

import (
	"context"
	"errors"
	"testing"

	"tourbook/internal/domain"
)

type memNotifs struct {
	rows []domain.Notification
	err  error
}

func (m *memNotifs) Create(ctx context.Context, n *domain.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *n)
	return nil
}

type memUsers struct{}

func (memUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id, Email: "linh@gmail.com"}, nil
}

type recordingMailer struct {
	confirmations int
	failures      int
	err           error
}

func (m *recordingMailer) SendPaymentConfirmation(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error {
	m.confirmations++
	return m.err
}

func (m *recordingMailer) SendPaymentFailed(ctx context.Context, to string, b *domain.Booking, p *domain.Payment) error {
	m.failures++
	return m.err
}

func fixtures() (*domain.Booking, *domain.Payment) {
	b := &domain.Booking{ID: 1, UserID: 5, BookingNumber: "TB260314ABC"}
	p := &domain.Payment{ID: 2, BookingID: 1, Provider: "momo", Amount: 680000, GatewayOrderID: "MOMO_TB260314ABC_1"}
	return b, p
}

func TestPaymentCompletedWritesNotificationAndMail(t *testing.T) {
	notifs := &memNotifs{}
	mailer := &recordingMailer{}
	d := NewDispatcher(notifs, memUsers{}, mailer, nil, nil)
	b, p := fixtures()

	d.PaymentCompleted(context.Background(), b, p)

	if len(notifs.rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs.rows))
	}
	if notifs.rows[0].Type != domain.NotifyPaymentCompleted || notifs.rows[0].UserID != 5 {
		t.Fatalf("unexpected notification %+v", notifs.rows[0])
	}
	if mailer.confirmations != 1 {
		t.Fatalf("expected 1 confirmation mail, got %d", mailer.confirmations)
	}
}

func TestPaymentFailedRaisesFollowUpTask(t *testing.T) {
	notifs := &memNotifs{}
	d := NewDispatcher(notifs, memUsers{}, &recordingMailer{}, nil, nil)
	b, p := fixtures()
	p.FailureReason = "customer cancelled"

	d.PaymentFailed(context.Background(), b, p)

	if len(notifs.rows) != 2 {
		t.Fatalf("expected customer notification plus follow-up, got %d", len(notifs.rows))
	}
	types := []string{notifs.rows[0].Type, notifs.rows[1].Type}
	if types[0] != domain.NotifyPaymentFailed || types[1] != domain.NotifyFollowUpTask {
		t.Fatalf("unexpected notification types %v", types)
	}
}

func TestDispatcherSwallowsStorageErrors(t *testing.T) {
	// A broken notification store must not panic or abort the webhook ack.
	notifs := &memNotifs{err: errors.New("disk full")}
	d := NewDispatcher(notifs, memUsers{}, &recordingMailer{err: errors.New("smtp down")}, nil, nil)
	b, p := fixtures()

	d.PaymentCompleted(context.Background(), b, p)
	d.PaymentFailed(context.Background(), b, p)
	d.PaymentRefunded(context.Background(), b, p)
}
