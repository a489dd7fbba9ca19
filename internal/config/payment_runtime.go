package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultGatewayTimeout = "15s"
	defaultVNPayBaseURL   = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	defaultVNPayAPIURL    = "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"
	defaultMoMoBaseURL    = "https://test-payment.momo.vn/v2/gateway/api"
	defaultZaloPayBaseURL = "https://sb-openapi.zalopay.vn/v2"
)

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	APIURL     string
	ReturnURL  string
	IPNURL     string
}

func (c VNPayConfig) IsConfigured() bool {
	return c.TmnCode != "" && c.HashSecret != ""
}

type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	BaseURL     string
	RedirectURL string
	IPNURL      string
}

func (c MoMoConfig) IsConfigured() bool {
	return c.PartnerCode != "" && c.AccessKey != "" && c.SecretKey != ""
}

type ZaloPayConfig struct {
	AppID       string
	Key1        string
	Key2        string
	BaseURL     string
	CallbackURL string
}

func (c ZaloPayConfig) IsConfigured() bool {
	return c.AppID != "" && c.Key1 != "" && c.Key2 != ""
}

type BankTransferConfig struct {
	BankName      string
	AccountNumber string
	AccountHolder string
}

func (c BankTransferConfig) IsConfigured() bool {
	return c.BankName != "" && c.AccountNumber != ""
}

// PaymentRuntimeConfig collects per-provider credentials and endpoints.
// Providers with missing credentials are skipped by the facade, not treated
// as a boot failure.
type PaymentRuntimeConfig struct {
	AppEnv         string
	GatewayTimeout time.Duration
	VNPay          VNPayConfig
	MoMo           MoMoConfig
	ZaloPay        ZaloPayConfig
	BankTransfer   BankTransferConfig
}

func LoadPaymentRuntimeConfig() (*PaymentRuntimeConfig, error) {
	cfg := &PaymentRuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	var err error
	cfg.GatewayTimeout, err = parseDurationEnv("PAYMENT_GATEWAY_TIMEOUT", defaultGatewayTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout <= 0 {
		return nil, fmt.Errorf("PAYMENT_GATEWAY_TIMEOUT must be > 0")
	}

	cfg.VNPay = VNPayConfig{
		TmnCode:    strings.TrimSpace(os.Getenv("VNPAY_TMN_CODE")),
		HashSecret: strings.TrimSpace(os.Getenv("VNPAY_HASH_SECRET")),
		BaseURL:    getEnv("VNPAY_BASE_URL", defaultVNPayBaseURL),
		APIURL:     getEnv("VNPAY_API_URL", defaultVNPayAPIURL),
		ReturnURL:  strings.TrimSpace(os.Getenv("VNPAY_RETURN_URL")),
		IPNURL:     strings.TrimSpace(os.Getenv("VNPAY_IPN_URL")),
	}

	cfg.MoMo = MoMoConfig{
		PartnerCode: strings.TrimSpace(os.Getenv("MOMO_PARTNER_CODE")),
		AccessKey:   strings.TrimSpace(os.Getenv("MOMO_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("MOMO_SECRET_KEY")),
		BaseURL:     getEnv("MOMO_BASE_URL", defaultMoMoBaseURL),
		RedirectURL: strings.TrimSpace(os.Getenv("MOMO_REDIRECT_URL")),
		IPNURL:      strings.TrimSpace(os.Getenv("MOMO_IPN_URL")),
	}

	cfg.ZaloPay = ZaloPayConfig{
		AppID:       strings.TrimSpace(os.Getenv("ZALOPAY_APP_ID")),
		Key1:        strings.TrimSpace(os.Getenv("ZALOPAY_KEY1")),
		Key2:        strings.TrimSpace(os.Getenv("ZALOPAY_KEY2")),
		BaseURL:     getEnv("ZALOPAY_BASE_URL", defaultZaloPayBaseURL),
		CallbackURL: strings.TrimSpace(os.Getenv("ZALOPAY_CALLBACK_URL")),
	}

	cfg.BankTransfer = BankTransferConfig{
		BankName:      strings.TrimSpace(os.Getenv("BANK_TRANSFER_BANK_NAME")),
		AccountNumber: strings.TrimSpace(os.Getenv("BANK_TRANSFER_ACCOUNT_NUMBER")),
		AccountHolder: strings.TrimSpace(os.Getenv("BANK_TRANSFER_ACCOUNT_HOLDER")),
	}

	return cfg, nil
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
