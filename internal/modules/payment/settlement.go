package payment

import (
	"context"
	"time"

	"tourbook/internal/domain"
)

// SettleInput is the normalized trigger for a state transition, produced
// either by a verified webhook or by a status-query reconciliation. Both
// paths funnel through Settler.Apply; nothing else mutates Payment/Booking
// settlement state.
type SettleInput struct {
	Provider      string
	OrderID       string
	TxnID         string
	Outcome       Outcome
	FailureReason string
	RawBody       string
}

type SettleResult struct {
	// Applied is true when this call performed the transition.
	Applied bool
	// AlreadyProcessed is true when the payment was already in the reported
	// terminal state; a no-op success, not an error.
	AlreadyProcessed bool
	Status           domain.PaymentStatus
}

// Settler is the payment/booking state machine. Legal transitions:
// pending→completed, pending→failed, completed→refunded. Repeats of a
// terminal state are no-ops; everything else is ErrIllegalTransition.
//
// A failed payment is deliberately not recoverable by a late success
// webhook: once failed, recovery means a fresh payment attempt.
type Settler struct {
	payments paymentRepo
	loggerf  func(format string, args ...interface{})
}

func NewSettler(payments paymentRepo, loggerf func(format string, args ...interface{})) *Settler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Settler{payments: payments, loggerf: loggerf}
}

func (s *Settler) Apply(ctx context.Context, in SettleInput) (*SettleResult, error) {
	switch in.Outcome {
	case OutcomeCompleted:
		applied, prev, err := s.payments.SettleCompleted(ctx, in.OrderID, in.TxnID, in.RawBody, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if applied {
			s.loggerf("level=info msg=payment settled provider=%s order_id=%s txn_id=%s status=completed", in.Provider, in.OrderID, in.TxnID)
			return &SettleResult{Applied: true, Status: domain.PaymentStatusCompleted}, nil
		}
		if prev == domain.PaymentStatusCompleted || prev == domain.PaymentStatusRefunded {
			return &SettleResult{AlreadyProcessed: true, Status: prev}, nil
		}
		s.loggerf("level=warn msg=success notification for failed payment rejected provider=%s order_id=%s", in.Provider, in.OrderID)
		return &SettleResult{Status: prev}, ErrIllegalTransition

	case OutcomeFailed:
		applied, prev, err := s.payments.SettleFailed(ctx, in.OrderID, in.FailureReason, in.RawBody)
		if err != nil {
			return nil, err
		}
		if applied {
			s.loggerf("level=info msg=payment settled provider=%s order_id=%s status=failed reason=%q", in.Provider, in.OrderID, in.FailureReason)
			return &SettleResult{Applied: true, Status: domain.PaymentStatusFailed}, nil
		}
		if prev == domain.PaymentStatusFailed {
			return &SettleResult{AlreadyProcessed: true, Status: prev}, nil
		}
		s.loggerf("level=warn msg=failure notification for settled payment rejected provider=%s order_id=%s status=%s", in.Provider, in.OrderID, prev)
		return &SettleResult{Status: prev}, ErrIllegalTransition

	case OutcomePending:
		p, err := s.payments.GetByGatewayOrderID(ctx, in.OrderID)
		if err != nil {
			return nil, err
		}
		return &SettleResult{Status: p.Status}, nil
	}

	return nil, ErrIllegalTransition
}

// Refund moves a completed payment to refunded. The repository guards the
// current-status check under the same row lock used for settlement, so a
// double refund loses the race and reports applied=false.
func (s *Settler) Refund(ctx context.Context, orderID string, amount int64, reason string) (*SettleResult, error) {
	applied, prev, err := s.payments.MarkRefunded(ctx, orderID, amount, reason, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !applied {
		if prev == domain.PaymentStatusRefunded {
			return &SettleResult{AlreadyProcessed: true, Status: prev}, nil
		}
		return &SettleResult{Status: prev}, ErrPaymentNotCompleted
	}
	s.loggerf("level=info msg=payment refunded order_id=%s amount=%d reason=%q", orderID, amount, reason)
	return &SettleResult{Applied: true, Status: domain.PaymentStatusRefunded}, nil
}
