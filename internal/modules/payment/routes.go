package payment

import "github.com/gin-gonic/gin"

// RegisterWebhookRoutes mounts the gateway-facing endpoints. They carry their
// own trust boundary (signatures) and must stay outside user auth.
func (h *Handler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("/providers", h.ListProviders)
		payments.GET("/vnpay/ipn", h.VNPayIPN)
		payments.GET("/vnpay/return", h.VNPayReturn)
		payments.POST("/momo/ipn", h.MoMoIPN)
		payments.POST("/zalopay/callback", h.ZaloPayCallback)
	}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/init", h.InitPayment)
		payments.GET("/:provider/status/:orderID", h.VerifyPayment)
	}
}

// RegisterAdminRoutes mounts administrative settlement actions; callers must
// already have passed the admin token middleware.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/bank-transfer/confirm", h.ConfirmBankTransfer)
		payments.POST("/:provider/refund", h.RefundPayment)
	}
}
