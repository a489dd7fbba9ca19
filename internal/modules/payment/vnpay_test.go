package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/domain"
	"tourbook/internal/pkg/signature"
)

func testVNPayAdapter(baseURL, apiURL string) *VNPayAdapter {
	a := NewVNPayAdapter(config.VNPayConfig{
		TmnCode:    "TESTTMN",
		HashSecret: "vnpay-secret",
		BaseURL:    baseURL,
		APIURL:     apiURL,
		ReturnURL:  "https://example.com/return",
	}, nil, nil)
	a.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func signedVNPayIPN(secret string, overrides map[string]string) url.Values {
	params := map[string]string{
		"vnp_TmnCode":       "TESTTMN",
		"vnp_TxnRef":        "TB260314ABC-1773999000",
		"vnp_Amount":        "145000000", // 1,450,000 VND in the gateway's x100 convention
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14501234",
		"vnp_BankCode":      "NCB",
		"vnp_PayDate":       "20260314163000",
	}
	for k, v := range overrides {
		params[k] = v
	}
	hash := signature.SignSortedQuery(secret, params, false)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("vnp_SecureHash", hash)
	return values
}

func TestVNPayCreateOrderBuildsSignedRedirect(t *testing.T) {
	a := testVNPayAdapter("https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "")

	res, err := a.CreateOrder(context.Background(), CreateOrderInput{
		Booking:     &domain.Booking{BookingNumber: "TB260314ABC", UserID: 7},
		Amount:      1450000,
		Description: "Booking TB260314ABC payment",
		ClientIP:    "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	u, err := url.Parse(res.RedirectURL)
	if err != nil {
		t.Fatalf("redirect url unparseable: %v", err)
	}
	q := u.Query()
	if q.Get("vnp_Amount") != "145000000" {
		t.Fatalf("expected amount x100 on the wire, got %s", q.Get("vnp_Amount"))
	}
	if q.Get("vnp_TxnRef") != res.OrderID {
		t.Fatalf("order id mismatch: %s vs %s", q.Get("vnp_TxnRef"), res.OrderID)
	}

	// Recompute over the encoded sorted form; outbound signing uses it.
	params := map[string]string{}
	for k := range q {
		if k != "vnp_SecureHash" {
			params[k] = q.Get(k)
		}
	}
	want := signature.SignSortedQuery("vnpay-secret", params, true)
	if q.Get("vnp_SecureHash") != want {
		t.Fatalf("redirect hash mismatch")
	}
}

func TestVNPayVerifyWebhookSuccess(t *testing.T) {
	a := testVNPayAdapter("", "")
	values := signedVNPayIPN("vnpay-secret", nil)

	res, err := a.VerifyWebhook(context.Background(), nil, values)
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %s", res.Outcome)
	}
	if res.Amount != 1450000 {
		t.Fatalf("expected amount normalized back to VND, got %d", res.Amount)
	}
	if res.TxnID != "14501234" || res.OrderID != "TB260314ABC-1773999000" {
		t.Fatalf("identity fields wrong: %+v", res)
	}
	if res.EventKey() != "TB260314ABC-1773999000:14501234" {
		t.Fatalf("unexpected event key %s", res.EventKey())
	}
}

func TestVNPayVerifyWebhookFailureCode(t *testing.T) {
	a := testVNPayAdapter("", "")
	values := signedVNPayIPN("vnpay-secret", map[string]string{"vnp_ResponseCode": "24"})

	res, err := a.VerifyWebhook(context.Background(), nil, values)
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", res.Outcome)
	}
	if res.FailureReason != "customer cancelled" {
		t.Fatalf("expected mapped reason, got %q", res.FailureReason)
	}
}

func TestVNPayVerifyWebhookTamperedAmount(t *testing.T) {
	a := testVNPayAdapter("", "")
	values := signedVNPayIPN("vnpay-secret", nil)
	values.Set("vnp_Amount", "1000000") // altered after signing

	if _, err := a.VerifyWebhook(context.Background(), nil, values); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVNPayVerifyWebhookWrongSecret(t *testing.T) {
	a := testVNPayAdapter("", "")
	values := signedVNPayIPN("other-secret", nil)

	if _, err := a.VerifyWebhook(context.Background(), nil, values); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVNPayVerifyWebhookMissingHash(t *testing.T) {
	a := testVNPayAdapter("", "")
	values := signedVNPayIPN("vnpay-secret", nil)
	values.Del("vnp_SecureHash")

	if _, err := a.VerifyWebhook(context.Background(), nil, values); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVNPayQueryStatusMapping(t *testing.T) {
	cases := []struct {
		txnStatus string
		want      Outcome
	}{
		{"00", OutcomeCompleted},
		{"01", OutcomePending},
		{"02", OutcomeFailed},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["vnp_Command"] != "querydr" {
				t.Errorf("expected querydr command, got %s", body["vnp_Command"])
			}
			json.NewEncoder(w).Encode(map[string]string{
				"vnp_ResponseCode":      "00",
				"vnp_TxnRef":            body["vnp_TxnRef"],
				"vnp_Amount":            "145000000",
				"vnp_TransactionNo":     "14501234",
				"vnp_TransactionStatus": tc.txnStatus,
			})
		}))

		a := testVNPayAdapter("", srv.URL)
		res, err := a.QueryStatus(context.Background(), "ORD-Q")
		srv.Close()
		if err != nil {
			t.Fatalf("QueryStatus(%s) returned error: %v", tc.txnStatus, err)
		}
		if res.Outcome != tc.want {
			t.Fatalf("status %s: expected %s, got %s", tc.txnStatus, tc.want, res.Outcome)
		}
		if res.Amount != 1450000 {
			t.Fatalf("expected amount normalized, got %d", res.Amount)
		}
	}
}

func TestVNPayQueryStatusGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"vnp_ResponseCode": "91",
			"vnp_Message":      "not found",
		})
	}))
	defer srv.Close()

	a := testVNPayAdapter("", srv.URL)
	_, err := a.QueryStatus(context.Background(), "ORD-MISSING")
	var rejected *ProviderRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ProviderRejectedError, got %v", err)
	}
	if rejected.Code != "91" {
		t.Fatalf("expected code 91, got %s", rejected.Code)
	}
}

func TestVNPayRefundRequiresTxnID(t *testing.T) {
	a := testVNPayAdapter("", "")
	if _, err := a.Refund(context.Background(), RefundInput{OrderID: "ORD-R", Amount: 100}); err == nil {
		t.Fatal("expected error without gateway transaction id")
	}
}

func TestVNPayRefundSendsMinorUnits(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{
			"vnp_ResponseCode":  "00",
			"vnp_TransactionNo": "99001122",
		})
	}))
	defer srv.Close()

	a := testVNPayAdapter("", srv.URL)
	res, err := a.Refund(context.Background(), RefundInput{OrderID: "ORD-R", TxnID: "14501234", Amount: 1450000, Reason: "cancel"})
	if err != nil {
		t.Fatalf("Refund returned error: %v", err)
	}
	if res.GatewayRefundID != "99001122" {
		t.Fatalf("expected gateway refund id, got %s", res.GatewayRefundID)
	}
	if got["vnp_Amount"] != strconv.FormatInt(1450000*100, 10) {
		t.Fatalf("expected amount x100, got %s", got["vnp_Amount"])
	}
}

func TestVNPayTransportFailureWrapped(t *testing.T) {
	a := testVNPayAdapter("", "http://127.0.0.1:1") // nothing listens here
	_, err := a.QueryStatus(context.Background(), "ORD-X")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}
