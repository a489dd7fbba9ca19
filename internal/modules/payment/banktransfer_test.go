package payment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tourbook/internal/config"
	"tourbook/internal/domain"
)

func testBankTransferAdapter() *BankTransferAdapter {
	return NewBankTransferAdapter(config.BankTransferConfig{
		BankName:      "Vietcombank",
		AccountNumber: "0123456789",
		AccountHolder: "TOURBOOK JSC",
	}, nil)
}

func TestBankTransferCreateOrderInstructions(t *testing.T) {
	a := testBankTransferAdapter()

	res, err := a.CreateOrder(context.Background(), CreateOrderInput{
		Booking: &domain.Booking{BookingNumber: "TB260314XYZ"},
		Amount:  890000,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if !strings.HasPrefix(res.OrderID, "BTTB260314XYZ") {
		t.Fatalf("unexpected transfer code %s", res.OrderID)
	}
	ins := res.BankInstructions
	if ins == nil {
		t.Fatal("expected bank instructions")
	}
	if ins.TransferCode != res.OrderID || ins.Amount != 890000 || ins.BankName != "Vietcombank" {
		t.Fatalf("instructions incomplete: %+v", ins)
	}

	// Codes must not collide across orders for the same booking.
	again, err := a.CreateOrder(context.Background(), CreateOrderInput{
		Booking: &domain.Booking{BookingNumber: "TB260314XYZ"},
		Amount:  890000,
	})
	if err != nil {
		t.Fatalf("second CreateOrder: %v", err)
	}
	if again.OrderID == res.OrderID {
		t.Fatalf("transfer codes collided: %s", res.OrderID)
	}
}

func TestBankTransferConfirmationRequiresReference(t *testing.T) {
	a := testBankTransferAdapter()

	if _, err := a.VerifyWebhook(context.Background(), []byte(`{"transfer_code":"BT1","amount":1}`), nil); err == nil {
		t.Fatal("expected error without bank statement reference")
	}
	if _, err := a.VerifyWebhook(context.Background(), []byte(`{"amount":1,"reference":"FT123"}`), nil); err == nil {
		t.Fatal("expected error without transfer code")
	}
}

func TestBankTransferConfirmationRequiresAmount(t *testing.T) {
	a := testBankTransferAdapter()

	_, err := a.VerifyWebhook(context.Background(), []byte(`{"transfer_code":"BTBK001ABC","reference":"FT26073001"}`), nil)
	if !errors.Is(err, ErrInvalidConfirmation) {
		t.Fatalf("expected ErrInvalidConfirmation without transferred amount, got %v", err)
	}
	_, err = a.VerifyWebhook(context.Background(), []byte(`{"transfer_code":"BTBK001ABC","amount":-1,"reference":"FT26073001"}`), nil)
	if !errors.Is(err, ErrInvalidConfirmation) {
		t.Fatalf("expected ErrInvalidConfirmation for non-positive amount, got %v", err)
	}
}

func TestBankTransferConfirmationCompletes(t *testing.T) {
	a := testBankTransferAdapter()

	res, err := a.VerifyWebhook(context.Background(),
		[]byte(`{"transfer_code":"BTTB260314XYZ0A1B2C","amount":890000,"reference":"FT26073001","confirmed_by":"ops@tourbook.vn"}`), nil)
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}
	if res.Outcome != OutcomeCompleted || res.OrderID != "BTTB260314XYZ0A1B2C" || res.TxnID != "FT26073001" {
		t.Fatalf("unexpected result %+v", res)
	}
	// The bank reference keys idempotency: re-confirming with the same
	// statement line produces the same event identity.
	if res.EventKey() != "BTTB260314XYZ0A1B2C:FT26073001" {
		t.Fatalf("unexpected event key %s", res.EventKey())
	}
}

func TestBankTransferQueryAlwaysPending(t *testing.T) {
	a := testBankTransferAdapter()
	res, err := a.QueryStatus(context.Background(), "BTX")
	if err != nil {
		t.Fatalf("QueryStatus returned error: %v", err)
	}
	if res.Outcome != OutcomePending {
		t.Fatalf("expected pending, got %s", res.Outcome)
	}
}
