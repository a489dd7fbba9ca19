package payment

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider       = errors.New("unknown payment provider")
	ErrProviderNotConfigured = errors.New("payment provider is not configured")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrAmountMismatch        = errors.New("amount mismatch")
	ErrIllegalTransition     = errors.New("illegal payment state transition")
	ErrInvalidConfirmation   = errors.New("invalid transfer confirmation")
	ErrPaymentNotCompleted   = errors.New("payment is not completed")
	ErrRefundExceedsAmount   = errors.New("refund amount exceeds payment amount")
)

// ProviderRejectedError carries a business-level rejection from the gateway:
// the transport round trip succeeded but the provider said no.
type ProviderRejectedError struct {
	Provider string
	Code     string
	Message  string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("%s rejected request: code=%s message=%s", e.Provider, e.Code, e.Message)
}

// TransportError wraps a network or timeout failure talking to the gateway.
// Callers choose their own retry policy; the core never retries.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
