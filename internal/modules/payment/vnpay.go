package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourbook/internal/config"
	"tourbook/internal/pkg/signature"
)

const vnpayVersion = "2.1.0"

// vnpayResponseText maps VNPay response codes to operator-readable reasons.
var vnpayResponseText = map[string]string{
	"01": "order not found",
	"02": "order already confirmed",
	"04": "invalid amount",
	"07": "suspected fraud, transaction held",
	"09": "card not registered for internet banking",
	"10": "card verification failed more than 3 times",
	"11": "payment window expired",
	"12": "card or account locked",
	"13": "wrong OTP",
	"24": "customer cancelled",
	"51": "insufficient funds",
	"65": "daily transaction limit exceeded",
	"75": "issuing bank under maintenance",
	"79": "wrong payment password too many times",
	"91": "transaction not found at gateway",
	"94": "duplicate request",
	"97": "invalid checksum",
	"99": "unclassified gateway error",
}

func vnpayFailureReason(code string) string {
	if msg, ok := vnpayResponseText[code]; ok {
		return msg
	}
	return "gateway response code " + code
}

// VNPayAdapter implements the redirect flow: the payer is sent to the VNPay
// portal with a signed query string and the gateway reports back over a
// signed IPN. Amounts go over the wire multiplied by 100, VNPay's minor-unit
// convention, unique among our providers and preserved as-is.
type VNPayAdapter struct {
	cfg     config.VNPayConfig
	client  *http.Client
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewVNPayAdapter(cfg config.VNPayConfig, client *http.Client, loggerf func(format string, args ...interface{})) *VNPayAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &VNPayAdapter{cfg: cfg, client: client, loggerf: loggerf, now: time.Now}
}

func (a *VNPayAdapter) Name() string { return ProviderVNPay }

func (a *VNPayAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *VNPayAdapter) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	now := a.now()
	orderID := fmt.Sprintf("%s-%d", in.Booking.BookingNumber, now.Unix())

	params := map[string]string{
		"vnp_Version":    vnpayVersion,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    a.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(in.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     orderID,
		"vnp_OrderInfo":  in.Description,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  a.cfg.ReturnURL,
		"vnp_IpAddr":     in.ClientIP,
		"vnp_CreateDate": now.Format("20060102150405"),
	}

	// Outbound signing is over the percent-encoded sorted form; inbound
	// verification is over the raw form. The asymmetry is VNPay's, not ours.
	secureHash := signature.SignSortedQuery(a.cfg.HashSecret, params, true)

	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("vnp_SecureHash", secureHash)

	return &CreateOrderResult{
		OrderID:     orderID,
		RedirectURL: a.cfg.BaseURL + "?" + q.Encode(),
	}, nil
}

func (a *VNPayAdapter) VerifyWebhook(ctx context.Context, rawBody []byte, values url.Values) (*WebhookResult, error) {
	received := values.Get("vnp_SecureHash")
	if received == "" {
		return nil, ErrInvalidSignature
	}

	params := make(map[string]string, len(values))
	for k := range values {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(k, "vnp_") {
			params[k] = values.Get(k)
		}
	}

	computed := signature.SignSortedQuery(a.cfg.HashSecret, params, false)
	if !signature.VerifyHex(computed, received) {
		return nil, ErrInvalidSignature
	}

	amount, err := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("vnpay: invalid vnp_Amount %q", values.Get("vnp_Amount"))
	}

	code := values.Get("vnp_ResponseCode")
	res := &WebhookResult{
		Provider:     ProviderVNPay,
		OrderID:      values.Get("vnp_TxnRef"),
		TxnID:        values.Get("vnp_TransactionNo"),
		ResponseCode: code,
		Amount:       amount / 100,
		RawBody:      values.Encode(),
	}
	if code == "00" {
		res.Outcome = OutcomeCompleted
	} else {
		res.Outcome = OutcomeFailed
		res.FailureReason = vnpayFailureReason(code)
	}
	return res, nil
}

type vnpayAPIResponse struct {
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
}

func (a *VNPayAdapter) QueryStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	now := a.now()
	params := map[string]string{
		"vnp_RequestId":       uuid.NewString(),
		"vnp_Version":         vnpayVersion,
		"vnp_Command":         "querydr",
		"vnp_TmnCode":         a.cfg.TmnCode,
		"vnp_TxnRef":          orderID,
		"vnp_OrderInfo":       "query transaction " + orderID,
		"vnp_TransactionDate": now.Format("20060102150405"),
		"vnp_CreateDate":      now.Format("20060102150405"),
		"vnp_IpAddr":          "127.0.0.1",
	}
	params["vnp_SecureHash"] = signature.SignSortedQuery(a.cfg.HashSecret, params, false)

	var resp vnpayAPIResponse
	raw, err := a.postJSON(ctx, a.cfg.APIURL, params, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode != "00" {
		return nil, &ProviderRejectedError{Provider: ProviderVNPay, Code: resp.ResponseCode, Message: resp.Message}
	}

	var amount int64
	if resp.Amount != "" {
		if v, perr := strconv.ParseInt(resp.Amount, 10, 64); perr == nil {
			amount = v / 100
		}
	}

	res := &StatusResult{
		OrderID: orderID,
		TxnID:   resp.TransactionNo,
		Amount:  amount,
		Message: resp.Message,
		RawBody: string(raw),
	}
	switch resp.TransactionStatus {
	case "00":
		res.Outcome = OutcomeCompleted
	case "01":
		res.Outcome = OutcomePending
	default:
		res.Outcome = OutcomeFailed
		res.Message = vnpayFailureReason(resp.TransactionStatus)
	}
	return res, nil
}

func (a *VNPayAdapter) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	now := a.now()
	transactionType := "02" // full refund
	if in.TxnID == "" {
		return nil, fmt.Errorf("vnpay: refund requires the gateway transaction id")
	}
	params := map[string]string{
		"vnp_RequestId":       uuid.NewString(),
		"vnp_Version":         vnpayVersion,
		"vnp_Command":         "refund",
		"vnp_TmnCode":         a.cfg.TmnCode,
		"vnp_TransactionType": transactionType,
		"vnp_TxnRef":          in.OrderID,
		"vnp_Amount":          strconv.FormatInt(in.Amount*100, 10),
		"vnp_OrderInfo":       in.Reason,
		"vnp_TransactionNo":   in.TxnID,
		"vnp_TransactionDate": now.Format("20060102150405"),
		"vnp_CreateBy":        "tourbook",
		"vnp_CreateDate":      now.Format("20060102150405"),
		"vnp_IpAddr":          "127.0.0.1",
	}
	params["vnp_SecureHash"] = signature.SignSortedQuery(a.cfg.HashSecret, params, false)

	var resp vnpayAPIResponse
	if _, err := a.postJSON(ctx, a.cfg.APIURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != "00" {
		return nil, &ProviderRejectedError{Provider: ProviderVNPay, Code: resp.ResponseCode, Message: resp.Message}
	}
	return &RefundResult{GatewayRefundID: resp.TransactionNo, Message: resp.Message}, nil
}

func (a *VNPayAdapter) postJSON(ctx context.Context, endpoint string, body map[string]string, out interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: ProviderVNPay, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: ProviderVNPay, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Provider: ProviderVNPay, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("vnpay: decode response: %w", err)
	}
	return raw, nil
}
