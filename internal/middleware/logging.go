package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/security"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware logs one line per request and propagates a request ID.
func LoggingMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	log := logging.Component(logger, "http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(logging.FieldRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			logging.FieldRequestID: requestID,
			"method":               c.Request.Method,
			"path":                 c.Request.URL.Path,
			"status":               c.Writer.Status(),
			"latency_ms":           time.Since(start).Milliseconds(),
			"client_ip":            c.ClientIP(),
		})
		if cred, err := security.CredentialFromContext(c); err == nil {
			entry = entry.WithField(logging.FieldAccountID, cred.AccountID)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}
