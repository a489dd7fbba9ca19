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
	"time"

	"github.com/google/uuid"

	"tourbook/internal/config"
	"tourbook/internal/pkg/signature"
)

// Field orders are MoMo-documented contracts. Create and IPN orders differ
// and must never be conflated.
var (
	momoCreateSignFields = []string{
		"accessKey", "amount", "extraData", "ipnUrl", "orderId",
		"orderInfo", "partnerCode", "redirectUrl", "requestId", "requestType",
	}
	momoIPNSignFields = []string{
		"accessKey", "amount", "extraData", "message", "orderId", "orderInfo",
		"orderType", "partnerCode", "payType", "requestId", "responseTime",
		"resultCode", "transId",
	}
	momoQuerySignFields  = []string{"accessKey", "orderId", "partnerCode", "requestId"}
	momoRefundSignFields = []string{"accessKey", "amount", "description", "orderId", "partnerCode", "requestId", "transId"}
)

// MoMoAdapter implements the webhook-push flow: order creation is a signed
// API call returning a pay URL, settlement arrives as a signed IPN POST.
type MoMoAdapter struct {
	cfg     config.MoMoConfig
	client  *http.Client
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewMoMoAdapter(cfg config.MoMoConfig, client *http.Client, loggerf func(format string, args ...interface{})) *MoMoAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &MoMoAdapter{cfg: cfg, client: client, loggerf: loggerf, now: time.Now}
}

func (a *MoMoAdapter) Name() string { return ProviderMoMo }

func (a *MoMoAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

type momoCreateResponse struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	PayURL      string `json:"payUrl"`
	QRCodeURL   string `json:"qrCodeUrl"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
}

func (a *MoMoAdapter) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	requestID := uuid.NewString()
	orderID := fmt.Sprintf("MOMO_%s_%d", in.Booking.BookingNumber, a.now().Unix())

	fields := map[string]string{
		"accessKey":   a.cfg.AccessKey,
		"amount":      strconv.FormatInt(in.Amount, 10),
		"extraData":   "",
		"ipnUrl":      a.cfg.IPNURL,
		"orderId":     orderID,
		"orderInfo":   in.Description,
		"partnerCode": a.cfg.PartnerCode,
		"redirectUrl": a.cfg.RedirectURL,
		"requestId":   requestID,
		"requestType": "captureWallet",
	}
	sig := signature.HMACSHA256Hex(a.cfg.SecretKey, signature.FixedOrderString(momoCreateSignFields, fields))

	body := map[string]interface{}{
		"partnerCode": a.cfg.PartnerCode,
		"requestId":   requestID,
		"amount":      in.Amount,
		"orderId":     orderID,
		"orderInfo":   in.Description,
		"redirectUrl": a.cfg.RedirectURL,
		"ipnUrl":      a.cfg.IPNURL,
		"extraData":   "",
		"requestType": "captureWallet",
		"signature":   sig,
		"lang":        "vi",
	}

	var resp momoCreateResponse
	if _, err := a.postJSON(ctx, a.cfg.BaseURL+"/create", body, &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != 0 {
		return nil, &ProviderRejectedError{Provider: ProviderMoMo, Code: strconv.Itoa(resp.ResultCode), Message: resp.Message}
	}
	return &CreateOrderResult{
		OrderID:     orderID,
		RedirectURL: resp.PayURL,
		QRPayload:   resp.QRCodeURL,
	}, nil
}

// momoIPNPayload is MoMo's inbound webhook shape; trusted only once the
// signature over the documented field order checks out.
type momoIPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func (a *MoMoAdapter) VerifyWebhook(ctx context.Context, rawBody []byte, values url.Values) (*WebhookResult, error) {
	var p momoIPNPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, fmt.Errorf("momo: decode webhook: %w", err)
	}
	if p.Signature == "" {
		return nil, ErrInvalidSignature
	}

	fields := map[string]string{
		"accessKey":    a.cfg.AccessKey,
		"amount":       strconv.FormatInt(p.Amount, 10),
		"extraData":    p.ExtraData,
		"message":      p.Message,
		"orderId":      p.OrderID,
		"orderInfo":    p.OrderInfo,
		"orderType":    p.OrderType,
		"partnerCode":  p.PartnerCode,
		"payType":      p.PayType,
		"requestId":    p.RequestID,
		"responseTime": strconv.FormatInt(p.ResponseTime, 10),
		"resultCode":   strconv.Itoa(p.ResultCode),
		"transId":      strconv.FormatInt(p.TransID, 10),
	}
	computed := signature.HMACSHA256Hex(a.cfg.SecretKey, signature.FixedOrderString(momoIPNSignFields, fields))
	if !signature.VerifyHex(computed, p.Signature) {
		return nil, ErrInvalidSignature
	}

	res := &WebhookResult{
		Provider:     ProviderMoMo,
		OrderID:      p.OrderID,
		ResponseCode: strconv.Itoa(p.ResultCode),
		Amount:       p.Amount,
		RawBody:      string(rawBody),
	}
	if p.TransID != 0 {
		res.TxnID = strconv.FormatInt(p.TransID, 10)
	}
	if p.ResultCode == 0 {
		res.Outcome = OutcomeCompleted
	} else {
		res.Outcome = OutcomeFailed
		res.FailureReason = p.Message
	}
	return res, nil
}

type momoQueryResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	Amount     int64  `json:"amount"`
	TransID    int64  `json:"transId"`
	OrderID    string `json:"orderId"`
}

func (a *MoMoAdapter) QueryStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	requestID := uuid.NewString()
	fields := map[string]string{
		"accessKey":   a.cfg.AccessKey,
		"orderId":     orderID,
		"partnerCode": a.cfg.PartnerCode,
		"requestId":   requestID,
	}
	sig := signature.HMACSHA256Hex(a.cfg.SecretKey, signature.FixedOrderString(momoQuerySignFields, fields))

	body := map[string]interface{}{
		"partnerCode": a.cfg.PartnerCode,
		"requestId":   requestID,
		"orderId":     orderID,
		"signature":   sig,
		"lang":        "vi",
	}

	var resp momoQueryResponse
	raw, err := a.postJSON(ctx, a.cfg.BaseURL+"/query", body, &resp)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{
		OrderID: orderID,
		Amount:  resp.Amount,
		Message: resp.Message,
		RawBody: string(raw),
	}
	if resp.TransID != 0 {
		res.TxnID = strconv.FormatInt(resp.TransID, 10)
	}
	switch resp.ResultCode {
	case 0:
		res.Outcome = OutcomeCompleted
	case 1000, 7000, 7002:
		// initiated / being processed by provider or payer
		res.Outcome = OutcomePending
	default:
		return nil, &ProviderRejectedError{Provider: ProviderMoMo, Code: strconv.Itoa(resp.ResultCode), Message: resp.Message}
	}
	return res, nil
}

type momoRefundResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	TransID    int64  `json:"transId"`
}

func (a *MoMoAdapter) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	requestID := uuid.NewString()
	fields := map[string]string{
		"accessKey":   a.cfg.AccessKey,
		"amount":      strconv.FormatInt(in.Amount, 10),
		"description": in.Reason,
		"orderId":     in.OrderID,
		"partnerCode": a.cfg.PartnerCode,
		"requestId":   requestID,
		"transId":     in.TxnID,
	}
	sig := signature.HMACSHA256Hex(a.cfg.SecretKey, signature.FixedOrderString(momoRefundSignFields, fields))

	transID, err := strconv.ParseInt(in.TxnID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("momo: refund requires a numeric transaction id, got %q", in.TxnID)
	}
	body := map[string]interface{}{
		"partnerCode": a.cfg.PartnerCode,
		"requestId":   requestID,
		"orderId":     in.OrderID,
		"amount":      in.Amount,
		"transId":     transID,
		"description": in.Reason,
		"signature":   sig,
		"lang":        "vi",
	}

	var resp momoRefundResponse
	if _, err := a.postJSON(ctx, a.cfg.BaseURL+"/refund", body, &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != 0 {
		return nil, &ProviderRejectedError{Provider: ProviderMoMo, Code: strconv.Itoa(resp.ResultCode), Message: resp.Message}
	}
	return &RefundResult{GatewayRefundID: strconv.FormatInt(resp.TransID, 10), Message: resp.Message}, nil
}

func (a *MoMoAdapter) postJSON(ctx context.Context, endpoint string, body interface{}, out interface{}) ([]byte, error) {
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
		return nil, &TransportError{Provider: ProviderMoMo, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: ProviderMoMo, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Provider: ProviderMoMo, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("momo: decode response: %w", err)
	}
	return raw, nil
}
