package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/pkg/signature"
)

// ZaloPayAdapter signs outbound requests with key1 over pipe-joined fields
// and verifies callbacks with key2 over the raw JSON data string. The two
// keys are distinct secrets; a callback never touches key1.
type ZaloPayAdapter struct {
	cfg     config.ZaloPayConfig
	client  *http.Client
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewZaloPayAdapter(cfg config.ZaloPayConfig, client *http.Client, loggerf func(format string, args ...interface{})) *ZaloPayAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &ZaloPayAdapter{cfg: cfg, client: client, loggerf: loggerf, now: time.Now}
}

func (a *ZaloPayAdapter) Name() string { return ProviderZaloPay }

func (a *ZaloPayAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

type zaloPayCreateResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZPTransToken     string `json:"zp_trans_token"`
}

func (a *ZaloPayAdapter) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	now := a.now()
	// ZaloPay requires app_trans_id prefixed with the yymmdd of app_time.
	appTransID := fmt.Sprintf("%s_%s_%d", now.Format("060102"), in.Booking.BookingNumber, now.Unix())
	appTime := strconv.FormatInt(now.UnixMilli(), 10)
	appUser := fmt.Sprintf("user_%d", in.Booking.UserID)
	amount := strconv.FormatInt(in.Amount, 10)

	embed, _ := json.Marshal(map[string]string{"booking_number": in.Booking.BookingNumber})
	item := "[]"

	macInput := strings.Join([]string{a.cfg.AppID, appTransID, appUser, amount, appTime, string(embed), item}, "|")
	mac := signature.HMACSHA256Hex(a.cfg.Key1, macInput)

	form := url.Values{}
	form.Set("app_id", a.cfg.AppID)
	form.Set("app_user", appUser)
	form.Set("app_trans_id", appTransID)
	form.Set("app_time", appTime)
	form.Set("amount", amount)
	form.Set("item", item)
	form.Set("embed_data", string(embed))
	form.Set("description", in.Description)
	form.Set("callback_url", a.cfg.CallbackURL)
	form.Set("mac", mac)

	var resp zaloPayCreateResponse
	if _, err := a.postForm(ctx, a.cfg.BaseURL+"/create", form, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnCode != 1 {
		return nil, &ProviderRejectedError{
			Provider: ProviderZaloPay,
			Code:     strconv.Itoa(resp.SubReturnCode),
			Message:  firstNonEmpty(resp.SubReturnMessage, resp.ReturnMessage),
		}
	}
	return &CreateOrderResult{OrderID: appTransID, RedirectURL: resp.OrderURL}, nil
}

// zaloPayCallback is the envelope: an opaque JSON data string plus its MAC.
// The data string is parsed only after the MAC over the raw bytes verifies.
type zaloPayCallback struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type zaloPayCallbackData struct {
	AppID       int    `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	AppTime     int64  `json:"app_time"`
	Amount      int64  `json:"amount"`
	EmbedData   string `json:"embed_data"`
	Item        string `json:"item"`
	ZPTransID   int64  `json:"zp_trans_id"`
	ServerTime  int64  `json:"server_time"`
	Channel     int    `json:"channel"`
	MerchantUID string `json:"merchant_user_id"`
}

func (a *ZaloPayAdapter) VerifyWebhook(ctx context.Context, rawBody []byte, values url.Values) (*WebhookResult, error) {
	var cb zaloPayCallback
	if err := json.Unmarshal(rawBody, &cb); err != nil {
		return nil, fmt.Errorf("zalopay: decode callback: %w", err)
	}
	if cb.Mac == "" {
		return nil, ErrInvalidSignature
	}

	computed := signature.HMACSHA256Hex(a.cfg.Key2, cb.Data)
	if !signature.VerifyHex(computed, cb.Mac) {
		return nil, ErrInvalidSignature
	}

	var data zaloPayCallbackData
	if err := json.Unmarshal([]byte(cb.Data), &data); err != nil {
		return nil, fmt.Errorf("zalopay: decode callback data: %w", err)
	}

	// ZaloPay only calls back on successful charges.
	return &WebhookResult{
		Provider:     ProviderZaloPay,
		OrderID:      data.AppTransID,
		TxnID:        strconv.FormatInt(data.ZPTransID, 10),
		ResponseCode: "1",
		Outcome:      OutcomeCompleted,
		Amount:       data.Amount,
		RawBody:      string(rawBody),
	}, nil
}

type zaloPayQueryResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	IsProcessing  bool   `json:"is_processing"`
	Amount        int64  `json:"amount"`
	ZPTransID     int64  `json:"zp_trans_id"`
}

func (a *ZaloPayAdapter) QueryStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	mac := signature.HMACSHA256Hex(a.cfg.Key1, strings.Join([]string{a.cfg.AppID, orderID, a.cfg.Key1}, "|"))

	form := url.Values{}
	form.Set("app_id", a.cfg.AppID)
	form.Set("app_trans_id", orderID)
	form.Set("mac", mac)

	var resp zaloPayQueryResponse
	raw, err := a.postForm(ctx, a.cfg.BaseURL+"/query", form, &resp)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{
		OrderID: orderID,
		Amount:  resp.Amount,
		Message: resp.ReturnMessage,
		RawBody: string(raw),
	}
	if resp.ZPTransID != 0 {
		res.TxnID = strconv.FormatInt(resp.ZPTransID, 10)
	}
	switch {
	case resp.ReturnCode == 1:
		res.Outcome = OutcomeCompleted
	case resp.ReturnCode == 3 || resp.IsProcessing:
		res.Outcome = OutcomePending
	case resp.ReturnCode == 2:
		res.Outcome = OutcomeFailed
	default:
		return nil, &ProviderRejectedError{Provider: ProviderZaloPay, Code: strconv.Itoa(resp.ReturnCode), Message: resp.ReturnMessage}
	}
	return res, nil
}

type zaloPayRefundResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	RefundID      int64  `json:"refund_id"`
}

func (a *ZaloPayAdapter) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	if in.TxnID == "" {
		return nil, fmt.Errorf("zalopay: refund requires the zp_trans_id")
	}
	now := a.now()
	timestamp := strconv.FormatInt(now.UnixMilli(), 10)
	mRefundID := fmt.Sprintf("%s_%s_%d", now.Format("060102"), a.cfg.AppID, now.UnixNano())
	amount := strconv.FormatInt(in.Amount, 10)

	macInput := strings.Join([]string{a.cfg.AppID, in.TxnID, amount, in.Reason, timestamp}, "|")
	mac := signature.HMACSHA256Hex(a.cfg.Key1, macInput)

	form := url.Values{}
	form.Set("app_id", a.cfg.AppID)
	form.Set("m_refund_id", mRefundID)
	form.Set("zp_trans_id", in.TxnID)
	form.Set("amount", amount)
	form.Set("description", in.Reason)
	form.Set("timestamp", timestamp)
	form.Set("mac", mac)

	var resp zaloPayRefundResponse
	if _, err := a.postForm(ctx, a.cfg.BaseURL+"/refund", form, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnCode != 1 && resp.ReturnCode != 3 {
		return nil, &ProviderRejectedError{Provider: ProviderZaloPay, Code: strconv.Itoa(resp.ReturnCode), Message: resp.ReturnMessage}
	}
	return &RefundResult{GatewayRefundID: strconv.FormatInt(resp.RefundID, 10), Message: resp.ReturnMessage}, nil
}

func (a *ZaloPayAdapter) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: ProviderZaloPay, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: ProviderZaloPay, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Provider: ProviderZaloPay, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("zalopay: decode response: %w", err)
	}
	return raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
