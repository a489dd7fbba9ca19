package payment

type InitPaymentRequest struct {
	Provider      string `json:"provider" binding:"required" example:"momo"`
	BookingNumber string `json:"booking_number" binding:"required" example:"TB001"`
	Amount        int64  `json:"amount" binding:"required,gt=0" example:"500000"`
	Description   string `json:"description" example:"Ha Long day tour, 2 guests"`
}

type RefundRequest struct {
	OrderID string `json:"order_id" binding:"required" example:"MOMO_TB001_1700000000"`
	Amount  int64  `json:"amount" binding:"required,gt=0" example:"200000"`
	Reason  string `json:"reason" binding:"required" example:"customer request"`
}

type ConfirmTransferRequest struct {
	TransferCode string `json:"transfer_code" binding:"required" example:"BTTB001A3F2C1"`
	Amount       int64  `json:"amount" binding:"required,gt=0" example:"500000"`
	Reference    string `json:"reference" binding:"required" example:"FT24123456789"`
	ConfirmedBy  string `json:"confirmed_by" example:"ops@tourbook.vn"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"invalid request"`
}
