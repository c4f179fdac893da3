package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dropapp/internal/pkg/response"
)

// CronSecretAuth protects scheduler endpoints with a static bearer secret.
// In development mode requests pass without a token.
func CronSecretAuth(secret string, development bool, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if development {
			c.Next()
			return
		}

		if secret == "" {
			logAuthFailure(log, c, http.StatusUnauthorized, "secret_not_configured")
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(log, c, http.StatusUnauthorized, "missing_auth")
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logAuthFailure(log, c, http.StatusUnauthorized, "invalid_auth_format")
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(secret)) != 1 {
			logAuthFailure(log, c, http.StatusUnauthorized, "invalid_token")
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c.Next()
	}
}

func logAuthFailure(log logrus.FieldLogger, c *gin.Context, status int, reason string) {
	log.WithFields(logrus.Fields{
		"status":     status,
		"path":       c.Request.URL.Path,
		"client_ip":  c.ClientIP(),
		"request_id": requestID(c),
		"reason":     reason,
	}).Warn("cron_auth rejected")
}
