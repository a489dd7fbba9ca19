package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"tourbook/internal/config"
)

// BankTransferAdapter covers the manual flow: no gateway, no cryptographic
// signature. "Confirmation" is an administrative action keyed by the transfer
// code; trust comes from the admin-token boundary at the HTTP layer. The
// confirmation still flows through VerifyWebhook so settlement and the
// idempotency ledger treat it exactly like the other three providers.
type BankTransferAdapter struct {
	cfg     config.BankTransferConfig
	loggerf func(format string, args ...interface{})
}

func NewBankTransferAdapter(cfg config.BankTransferConfig, loggerf func(format string, args ...interface{})) *BankTransferAdapter {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &BankTransferAdapter{cfg: cfg, loggerf: loggerf}
}

func (a *BankTransferAdapter) Name() string { return ProviderBankTransfer }

func (a *BankTransferAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *BankTransferAdapter) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return nil, err
	}
	transferCode := fmt.Sprintf("BT%s%s", in.Booking.BookingNumber, strings.ToUpper(hex.EncodeToString(suffix)))

	return &CreateOrderResult{
		OrderID: transferCode,
		BankInstructions: &BankInstructions{
			BankName:      a.cfg.BankName,
			AccountNumber: a.cfg.AccountNumber,
			AccountHolder: a.cfg.AccountHolder,
			TransferCode:  transferCode,
			Amount:        in.Amount,
		},
	}, nil
}

// bankTransferConfirmation is the administrative confirmation body.
type bankTransferConfirmation struct {
	TransferCode string `json:"transfer_code"`
	Amount       int64  `json:"amount"`
	Reference    string `json:"reference"`
	ConfirmedBy  string `json:"confirmed_by"`
}

func (a *BankTransferAdapter) VerifyWebhook(ctx context.Context, rawBody []byte, values url.Values) (*WebhookResult, error) {
	var c bankTransferConfirmation
	if err := json.Unmarshal(rawBody, &c); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrInvalidConfirmation, err)
	}
	if c.TransferCode == "" {
		return nil, fmt.Errorf("%w: transfer_code is required", ErrInvalidConfirmation)
	}
	if c.Reference == "" {
		return nil, fmt.Errorf("%w: bank statement reference is required", ErrInvalidConfirmation)
	}
	// Without a declared amount the mismatch check downstream never runs,
	// so a confirmation must always state what actually arrived.
	if c.Amount <= 0 {
		return nil, fmt.Errorf("%w: transferred amount is required", ErrInvalidConfirmation)
	}

	return &WebhookResult{
		Provider:     ProviderBankTransfer,
		OrderID:      c.TransferCode,
		TxnID:        c.Reference,
		ResponseCode: "confirmed",
		Outcome:      OutcomeCompleted,
		Amount:       c.Amount,
		RawBody:      string(rawBody),
	}, nil
}

func (a *BankTransferAdapter) QueryStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	// There is no gateway to ask; until an operator confirms the transfer
	// the order stays pending from the adapter's point of view.
	return &StatusResult{
		OrderID: orderID,
		Outcome: OutcomePending,
		Message: "manual transfer awaiting administrative confirmation",
	}, nil
}

func (a *BankTransferAdapter) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	a.loggerf("level=info msg=manual refund recorded order_id=%s amount=%d reason=%q", in.OrderID, in.Amount, in.Reason)
	return &RefundResult{Message: "refund must be transferred back manually"}, nil
}
