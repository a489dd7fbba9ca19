package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/pkg/response"
)

type notificationReader interface {
	GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type Handler struct {
	notifs notificationReader
	hub    *Hub
}

func NewHandler(notifs notificationReader, hub *Hub) *Handler {
	return &Handler{notifs: notifs, hub: hub}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.List)
	r.POST("/notifications/:id/read", h.MarkRead)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/ops/payments/ws", h.OpsWS)
}

func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.notifs.GetByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load notifications")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid notification id")
		return
	}
	if err := h.notifs.MarkRead(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to mark notification read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// OpsWS streams live payment events to an operator dashboard.
func (h *Handler) OpsWS(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		response.Error(c, http.StatusBadRequest, "WS_UPGRADE_FAILED", err.Error())
	}
}
