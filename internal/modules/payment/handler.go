package payment

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tourbook/internal/pkg/response"
)

type Handler struct {
	service *Service
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, loggerf: loggerf}
}

// ListProviders godoc
// @Summary      List available payment providers
// @Tags         Payments
// @Produce      json
// @Success      200 {object} ProvidersResponse
// @Router       /payments/providers [get]
func (h *Handler) ListProviders(c *gin.Context) {
	response.Success(c, http.StatusOK, ProvidersResponse{Providers: h.service.AvailableProviders()})
}

// InitPayment godoc
// @Summary      Create a payment order with a provider
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body InitPaymentRequest true "Payment init payload"
// @Success      200 {object} CreatePaymentResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments/init [post]
func (h *Handler) InitPayment(c *gin.Context) {
	var req InitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	res, err := h.service.CreatePayment(c.Request.Context(), req.Provider, req.BookingNumber, req.Amount, req.Description, c.ClientIP())
	if err != nil {
		h.loggerf("level=error msg=payment init failed provider=%s booking=%s err=%v", req.Provider, req.BookingNumber, err)
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// VNPayIPN godoc
// @Summary      VNPay IPN endpoint
// @Description  Verifies the signed IPN query string and settles the payment
// @Tags         Payments
// @Produce      json
// @Router       /payments/vnpay/ipn [get]
func (h *Handler) VNPayIPN(c *gin.Context) {
	if _, err := h.service.HandleWebhook(c.Request.Context(), ProviderVNPay, nil, c.Request.URL.Query()); err != nil {
		h.loggerf("level=error msg=vnpay ipn rejected err=%v query=%s", err, c.Request.URL.RawQuery)
		c.JSON(http.StatusOK, gin.H{"RspCode": vnpayIPNErrorCode(err), "Message": err.Error()})
		return
	}
	// VNPay retries anything that is not RspCode 00; replays ack the same way.
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

// VNPayReturn godoc
// @Summary      VNPay customer return URL
// @Description  Verifies the redirect signature only; the IPN settles state
// @Tags         Payments
// @Produce      json
// @Router       /payments/vnpay/return [get]
func (h *Handler) VNPayReturn(c *gin.Context) {
	res, err := h.service.VerifyReturn(c.Request.Context(), ProviderVNPay, c.Request.URL.Query())
	if err != nil {
		response.Error(c, http.StatusForbidden, "SIGNATURE_INVALID", "return signature verification failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"order_id": res.OrderID,
		"outcome":  res.Outcome,
		"message":  res.FailureReason,
	})
}

// MoMoIPN godoc
// @Summary      MoMo IPN endpoint
// @Tags         Payments
// @Accept       json
// @Router       /payments/momo/ipn [post]
func (h *Handler) MoMoIPN(c *gin.Context) {
	rawBody, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(rawBody)))

	_, err := h.service.HandleWebhook(c.Request.Context(), ProviderMoMo, rawBody, nil)
	if err != nil {
		h.loggerf("level=error msg=momo ipn rejected err=%v body=%s", err, string(rawBody))
		if isWebhookRejection(err) {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	// MoMo treats 204 as delivered and stops retrying.
	c.Status(http.StatusNoContent)
}

// ZaloPayCallback godoc
// @Summary      ZaloPay callback endpoint
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Router       /payments/zalopay/callback [post]
func (h *Handler) ZaloPayCallback(c *gin.Context) {
	rawBody, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(rawBody)))

	_, err := h.service.HandleWebhook(c.Request.Context(), ProviderZaloPay, rawBody, nil)
	if err != nil {
		h.loggerf("level=error msg=zalopay callback rejected err=%v body=%s", err, string(rawBody))
		if isWebhookRejection(err) {
			// -1 tells ZaloPay not to retry a payload that can never verify.
			c.JSON(http.StatusOK, gin.H{"return_code": -1, "return_message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"return_code": 0, "return_message": "retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"return_code": 1, "return_message": "success"})
}

// ConfirmBankTransfer godoc
// @Summary      Confirm a manual bank transfer
// @Description  Administrative settlement keyed by transfer code; idempotent
// @Tags         Payments
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        body body ConfirmTransferRequest true "Confirmation payload"
// @Success      200 {object} WebhookOutcome
// @Failure      400 {object} ErrorResponse
// @Router       /payments/bank-transfer/confirm [post]
func (h *Handler) ConfirmBankTransfer(c *gin.Context) {
	rawBody, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(strings.NewReader(string(rawBody)))

	outcome, err := h.service.HandleWebhook(c.Request.Context(), ProviderBankTransfer, rawBody, nil)
	if err != nil {
		h.loggerf("level=error msg=bank transfer confirm failed err=%v body=%s", err, string(rawBody))
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// VerifyPayment godoc
// @Summary      Reconcile an order against the gateway
// @Tags         Payments
// @Security     BearerAuth
// @Produce      json
// @Param        provider path string true "Provider name"
// @Param        orderID path string true "Gateway order id"
// @Success      200 {object} VerifyResult
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments/{provider}/status/{orderID} [get]
func (h *Handler) VerifyPayment(c *gin.Context) {
	res, err := h.service.VerifyPayment(c.Request.Context(), c.Param("provider"), c.Param("orderID"))
	if err != nil {
		h.loggerf("level=error msg=payment verify failed provider=%s order_id=%s err=%v", c.Param("provider"), c.Param("orderID"), err)
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// RefundPayment godoc
// @Summary      Refund a completed payment
// @Tags         Payments
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        provider path string true "Provider name"
// @Param        body body RefundRequest true "Refund payload"
// @Success      200 {object} RefundOutcome
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /payments/{provider}/refund [post]
func (h *Handler) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	res, err := h.service.Refund(c.Request.Context(), c.Param("provider"), req.OrderID, req.Amount, req.Reason)
	if err != nil {
		h.loggerf("level=error msg=refund failed provider=%s order_id=%s err=%v", c.Param("provider"), req.OrderID, err)
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var rejected *ProviderRejectedError
	var transport *TransportError

	switch {
	case errors.Is(err, ErrUnknownProvider) || errors.Is(err, ErrProviderNotConfigured):
		response.Error(c, http.StatusBadRequest, "PROVIDER_UNAVAILABLE", err.Error())
	case errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrPaymentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidSignature):
		response.Error(c, http.StatusForbidden, "SIGNATURE_INVALID", err.Error())
	case errors.Is(err, ErrAmountMismatch):
		response.Error(c, http.StatusBadRequest, "AMOUNT_MISMATCH", err.Error())
	case errors.Is(err, ErrInvalidConfirmation):
		response.Error(c, http.StatusBadRequest, "INVALID_CONFIRMATION", err.Error())
	case errors.Is(err, ErrIllegalTransition):
		response.Error(c, http.StatusConflict, "ILLEGAL_TRANSITION", err.Error())
	case errors.Is(err, ErrPaymentNotCompleted) || errors.Is(err, ErrRefundExceedsAmount):
		response.Error(c, http.StatusConflict, "REFUND_REJECTED", err.Error())
	case errors.As(err, &rejected):
		response.Error(c, http.StatusBadGateway, "PROVIDER_REJECTED", rejected.Message)
	case errors.As(err, &transport):
		response.Error(c, http.StatusBadGateway, "GATEWAY_UNREACHABLE", "payment gateway did not respond")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func isWebhookRejection(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrPaymentNotFound)
}

func vnpayIPNErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return "97"
	case errors.Is(err, ErrPaymentNotFound):
		return "01"
	case errors.Is(err, ErrAmountMismatch):
		return "04"
	case errors.Is(err, ErrIllegalTransition):
		return "02"
	default:
		return "99"
	}
}
