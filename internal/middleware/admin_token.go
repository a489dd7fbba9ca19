package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"

	"tourbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminTokenAuth protects manual reconciliation endpoints with a static
// bearer token. It is meant for back-office tooling and cron jobs that
// confirm bank transfers or trigger refunds without a user session.
func AdminTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logTokenFailure(c, http.StatusUnauthorized, "missing_auth")
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logTokenFailure(c, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		expected := os.Getenv("PAYMENT_ADMIN_TOKEN")
		if expected == "" {
			logTokenFailure(c, http.StatusInternalServerError, "token_not_configured")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Admin token is not configured")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			logTokenFailure(c, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid admin token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logTokenFailure(c *gin.Context, status int, reason string) {
	log.Printf("admin_token_auth status=%d client_ip=%s reason=%s", status, c.ClientIP(), reason)
}
