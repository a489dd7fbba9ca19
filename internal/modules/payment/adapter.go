package payment

import (
	"context"
	"net/url"

	"tourbook/internal/domain"
)

const (
	ProviderVNPay        = "vnpay"
	ProviderMoMo         = "momo"
	ProviderZaloPay      = "zalopay"
	ProviderBankTransfer = "bank_transfer"
)

// Outcome is the closed vocabulary every provider's response codes are mapped
// to at the adapter boundary. Raw gateway codes never cross it.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomePending   Outcome = "pending"
)

type CreateOrderInput struct {
	Booking     *domain.Booking
	Amount      int64
	Description string
	ClientIP    string
}

// BankInstructions tells the payer how to complete a manual transfer.
type BankInstructions struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
	TransferCode  string `json:"transfer_code"`
	Amount        int64  `json:"amount"`
}

type CreateOrderResult struct {
	OrderID          string
	RedirectURL      string
	QRPayload        string
	BankInstructions *BankInstructions
}

// WebhookResult is the typed, verified view of an inbound notification. It is
// only constructed after signature verification succeeds.
type WebhookResult struct {
	Provider      string
	OrderID       string
	TxnID         string
	ResponseCode  string
	Outcome       Outcome
	Amount        int64
	FailureReason string
	RawBody       string
}

// EventKey is the deterministic identity used by the idempotency ledger:
// transaction id when the gateway assigned one, response code otherwise
// (failure notifications may arrive before any transaction exists).
func (w *WebhookResult) EventKey() string {
	if w.TxnID != "" {
		return w.OrderID + ":" + w.TxnID
	}
	return w.OrderID + ":code=" + w.ResponseCode
}

type StatusResult struct {
	OrderID string
	TxnID   string
	Outcome Outcome
	Amount  int64
	Message string
	RawBody string
}

type RefundInput struct {
	OrderID string
	TxnID   string
	Amount  int64
	Reason  string
}

type RefundResult struct {
	GatewayRefundID string
	Message         string
}

// Adapter is the shared gateway contract. Adapters are pure protocol: they
// sign, call and verify, but never touch local storage. All Payment/Booking
// mutation goes through the settler.
type Adapter interface {
	Name() string
	IsConfigured() bool
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
	VerifyWebhook(ctx context.Context, rawBody []byte, values url.Values) (*WebhookResult, error)
	QueryStatus(ctx context.Context, orderID string) (*StatusResult, error)
	Refund(ctx context.Context, in RefundInput) (*RefundResult, error)
}
