package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"gorm.io/gorm"

	"tourbook/internal/config"
	"tourbook/internal/domain"
)

// Service is the provider-agnostic facade. It owns the adapter registry, the
// settler and the idempotency ledger, and is the only caller of either.
type Service struct {
	adapters   map[string]Adapter
	order      []string
	bookings   bookingReader
	payments   paymentRepo
	events     eventLedger
	settler    *Settler
	dispatcher SideEffectDispatcher
	loggerf    func(format string, args ...interface{})
}

func NewService(
	cfg *config.PaymentRuntimeConfig,
	client *http.Client,
	bookings bookingReader,
	payments paymentRepo,
	events eventLedger,
	dispatcher SideEffectDispatcher,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.GatewayTimeout}
	}

	adapters := []Adapter{
		NewVNPayAdapter(cfg.VNPay, client, loggerf),
		NewMoMoAdapter(cfg.MoMo, client, loggerf),
		NewZaloPayAdapter(cfg.ZaloPay, client, loggerf),
		NewBankTransferAdapter(cfg.BankTransfer, loggerf),
	}

	s := &Service{
		adapters:   make(map[string]Adapter, len(adapters)),
		bookings:   bookings,
		payments:   payments,
		events:     events,
		settler:    NewSettler(payments, loggerf),
		dispatcher: dispatcher,
		loggerf:    loggerf,
	}
	for _, a := range adapters {
		s.adapters[a.Name()] = a
		s.order = append(s.order, a.Name())
		if !a.IsConfigured() {
			loggerf("level=warn msg=payment provider missing credentials, disabled provider=%s", a.Name())
		}
	}
	return s
}

// AvailableProviders lists providers whose credentials are present.
// Unconfigured providers degrade to absence, never to a call-time crash.
func (s *Service) AvailableProviders() []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if s.adapters[name].IsConfigured() {
			out = append(out, name)
		}
	}
	return out
}

func (s *Service) resolve(provider string) (Adapter, error) {
	a, ok := s.adapters[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if !a.IsConfigured() {
		return nil, ErrProviderNotConfigured
	}
	return a, nil
}

type CreatePaymentResult struct {
	PaymentID        int64             `json:"payment_id"`
	Provider         string            `json:"provider"`
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"`
	RedirectURL      string            `json:"redirect_url,omitempty"`
	QRPayload        string            `json:"qr_payload,omitempty"`
	BankInstructions *BankInstructions `json:"bank_instructions,omitempty"`
}

func (s *Service) CreatePayment(ctx context.Context, provider, bookingNumber string, amount int64, description, clientIP string) (*CreatePaymentResult, error) {
	adapter, err := s.resolve(provider)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByNumber(ctx, bookingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking lookup failed: %w", err)
	}
	if amount != booking.TotalPrice {
		return nil, ErrAmountMismatch
	}
	if description == "" {
		description = fmt.Sprintf("Booking %s payment", booking.BookingNumber)
	}

	// The gateway call happens before the local row so a transport failure
	// leaves nothing half-committed.
	res, err := adapter.CreateOrder(ctx, CreateOrderInput{
		Booking:     booking,
		Amount:      amount,
		Description: description,
		ClientIP:    clientIP,
	})
	if err != nil {
		return nil, err
	}

	p := &domain.Payment{
		BookingID:      booking.ID,
		Provider:       provider,
		Amount:         amount,
		GatewayOrderID: res.OrderID,
		Status:         domain.PaymentStatusPending,
		Description:    description,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment failed: %w", err)
	}
	s.loggerf("level=info msg=payment order created provider=%s booking=%s order_id=%s amount=%d", provider, bookingNumber, res.OrderID, amount)

	return &CreatePaymentResult{
		PaymentID:        p.ID,
		Provider:         provider,
		OrderID:          res.OrderID,
		Amount:           amount,
		RedirectURL:      res.RedirectURL,
		QRPayload:        res.QRPayload,
		BankInstructions: res.BankInstructions,
	}, nil
}

// WebhookOutcome is what webhook handlers acknowledge to the gateway. An
// already-processed replay is indistinguishable from fresh success apart
// from the flag.
type WebhookOutcome struct {
	Provider         string               `json:"provider"`
	OrderID          string               `json:"order_id"`
	Status           domain.PaymentStatus `json:"status"`
	Amount           int64                `json:"amount"`
	TransactionID    string               `json:"transaction_id,omitempty"`
	AlreadyProcessed bool                 `json:"already_processed"`
}

func (s *Service) HandleWebhook(ctx context.Context, provider string, rawBody []byte, values url.Values) (*WebhookOutcome, error) {
	adapter, err := s.resolve(provider)
	if err != nil {
		return nil, err
	}

	// Reject before anything else: an unverified payload must not reach the
	// ledger or the state machine.
	res, err := adapter.VerifyWebhook(ctx, rawBody, values)
	if err != nil {
		return nil, err
	}

	return s.processEvent(ctx, res)
}

// VerifyReturn checks the signature of a customer-redirect return without
// settling anything; the IPN is the source of truth for state.
func (s *Service) VerifyReturn(ctx context.Context, provider string, values url.Values) (*WebhookResult, error) {
	adapter, err := s.resolve(provider)
	if err != nil {
		return nil, err
	}
	return adapter.VerifyWebhook(ctx, nil, values)
}

// processEvent is the shared idempotent settlement path for both webhook
// pushes and query-driven reconciliation.
func (s *Service) processEvent(ctx context.Context, res *WebhookResult) (*WebhookOutcome, error) {
	eventKey := res.EventKey()

	// Fast path: a recorded event proves the side effects already ran.
	seen, err := s.events.Exists(ctx, res.Provider, eventKey)
	if err != nil {
		return nil, fmt.Errorf("ledger check failed: %w", err)
	}
	if seen {
		s.loggerf("level=info msg=duplicate webhook short-circuited provider=%s event_key=%s", res.Provider, eventKey)
		p, perr := s.payments.GetByGatewayOrderID(ctx, res.OrderID)
		if perr != nil {
			return nil, perr
		}
		return &WebhookOutcome{
			Provider:         res.Provider,
			OrderID:          res.OrderID,
			Status:           p.Status,
			Amount:           p.Amount,
			TransactionID:    p.GatewayTxnID,
			AlreadyProcessed: true,
		}, nil
	}

	p, err := s.payments.GetByGatewayOrderID(ctx, res.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	// A declared amount that disagrees with the stored payment is rejected
	// outright and recorded nowhere; operators investigate those.
	if res.Amount != 0 && res.Amount != p.Amount {
		s.loggerf("level=error msg=webhook amount mismatch provider=%s order_id=%s declared=%d stored=%d", res.Provider, res.OrderID, res.Amount, p.Amount)
		return nil, ErrAmountMismatch
	}

	settle, err := s.settler.Apply(ctx, SettleInput{
		Provider:      res.Provider,
		OrderID:       res.OrderID,
		TxnID:         res.TxnID,
		Outcome:       res.Outcome,
		FailureReason: res.FailureReason,
		RawBody:       res.RawBody,
	})
	if err != nil {
		return nil, err
	}

	outcome := &WebhookOutcome{
		Provider:         res.Provider,
		OrderID:          res.OrderID,
		Status:           settle.Status,
		Amount:           p.Amount,
		TransactionID:    res.TxnID,
		AlreadyProcessed: settle.AlreadyProcessed,
	}
	if res.Outcome == OutcomePending {
		return outcome, nil
	}

	// State first, ledger second: a replayed transition is a no-op by
	// construction, a replayed side effect is not. The unique index makes
	// the insert the atomic claim under concurrent duplicates.
	created, err := s.events.Record(ctx, &domain.WebhookEvent{
		Provider:       res.Provider,
		EventKey:       eventKey,
		GatewayOrderID: res.OrderID,
		GatewayTxnID:   res.TxnID,
		Outcome:        string(res.Outcome),
		RawPayload:     res.RawBody,
	})
	if err != nil {
		// The transition already committed; the next replay settles as a
		// no-op. Log loudly and acknowledge.
		s.loggerf("level=error msg=ledger write failed after settlement provider=%s event_key=%s err=%v", res.Provider, eventKey, err)
		return outcome, nil
	}
	if !created {
		outcome.AlreadyProcessed = true
		return outcome, nil
	}

	// The ledger claim, not the settle result, carries the dispatch right:
	// under concurrent duplicates the delivery that applied the transition
	// can lose the Record race to a replay, and gating on Applied would
	// then fire no side effects at all. Every path reaching this point has
	// the payment in the terminal state this event reports.
	if s.dispatcher != nil {
		s.dispatch(ctx, res, p.BookingID)
	}
	return outcome, nil
}

func (s *Service) dispatch(ctx context.Context, res *WebhookResult, bookingID int64) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		s.loggerf("level=error msg=side effect dispatch skipped, booking load failed booking_id=%d err=%v", bookingID, err)
		return
	}
	p, err := s.payments.GetByGatewayOrderID(ctx, res.OrderID)
	if err != nil {
		s.loggerf("level=error msg=side effect dispatch skipped, payment load failed order_id=%s err=%v", res.OrderID, err)
		return
	}
	switch res.Outcome {
	case OutcomeCompleted:
		s.dispatcher.PaymentCompleted(ctx, booking, p)
	case OutcomeFailed:
		s.dispatcher.PaymentFailed(ctx, booking, p)
	}
}

type VerifyResult struct {
	Provider      string               `json:"provider"`
	OrderID       string               `json:"order_id"`
	Verified      bool                 `json:"verified"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Message       string               `json:"message,omitempty"`
}

// VerifyPayment reconciles an order against the gateway's current view. The
// pull path feeds the exact same settlement machinery as the push path, so a
// lost webhook cannot strand an order.
func (s *Service) VerifyPayment(ctx context.Context, provider, orderID string) (*VerifyResult, error) {
	adapter, err := s.resolve(provider)
	if err != nil {
		return nil, err
	}
	if _, err := s.payments.GetByGatewayOrderID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	status, err := adapter.QueryStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	synthetic := &WebhookResult{
		Provider:      provider,
		OrderID:       orderID,
		TxnID:         status.TxnID,
		ResponseCode:  "query",
		Outcome:       status.Outcome,
		Amount:        status.Amount,
		FailureReason: status.Message,
		RawBody:       status.RawBody,
	}
	outcome, err := s.processEvent(ctx, synthetic)
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			p, perr := s.payments.GetByGatewayOrderID(ctx, orderID)
			if perr != nil {
				return nil, perr
			}
			return &VerifyResult{Provider: provider, OrderID: orderID, Verified: true, Status: p.Status, Message: "gateway and local state disagree"}, nil
		}
		return nil, err
	}

	return &VerifyResult{
		Provider:      provider,
		OrderID:       orderID,
		Verified:      true,
		Status:        outcome.Status,
		TransactionID: outcome.TransactionID,
		Message:       status.Message,
	}, nil
}

type RefundOutcome struct {
	Provider        string               `json:"provider"`
	OrderID         string               `json:"order_id"`
	Status          domain.PaymentStatus `json:"status"`
	RefundAmount    int64                `json:"refund_amount"`
	GatewayRefundID string               `json:"gateway_refund_id,omitempty"`
}

// Refund is administrative. The provider's declared outcome, not transport
// success, decides whether the local payment flips to refunded, and the
// current-status guard runs again inside the transition to stop a double
// refund racing past the pre-check.
func (s *Service) Refund(ctx context.Context, provider, orderID string, amount int64, reason string) (*RefundOutcome, error) {
	adapter, err := s.resolve(provider)
	if err != nil {
		return nil, err
	}

	p, err := s.payments.GetByGatewayOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if p.Status != domain.PaymentStatusCompleted {
		return nil, ErrPaymentNotCompleted
	}
	if amount <= 0 || amount > p.Amount {
		return nil, ErrRefundExceedsAmount
	}

	res, err := adapter.Refund(ctx, RefundInput{
		OrderID: orderID,
		TxnID:   p.GatewayTxnID,
		Amount:  amount,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}

	settle, err := s.settler.Refund(ctx, orderID, amount, reason)
	if err != nil {
		return nil, err
	}
	if settle.Applied && s.dispatcher != nil {
		if booking, berr := s.bookings.GetByID(ctx, p.BookingID); berr == nil {
			if refreshed, perr := s.payments.GetByGatewayOrderID(ctx, orderID); perr == nil {
				s.dispatcher.PaymentRefunded(ctx, booking, refreshed)
			}
		}
	}

	return &RefundOutcome{
		Provider:        provider,
		OrderID:         orderID,
		Status:          domain.PaymentStatusRefunded,
		RefundAmount:    amount,
		GatewayRefundID: res.GatewayRefundID,
	}, nil
}

// PaymentsForBooking lists payment attempts for operator screens.
func (s *Service) PaymentsForBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return s.payments.GetByBookingID(ctx, bookingID)
}
