package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextIPAddress = "ip_address"
	ContextUserAgent = "user_agent"
	ContextRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// AuditMiddleware records who is calling: client IP, user agent and a
// request id echoed back in X-Request-ID.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ipAddress := c.GetHeader("X-Forwarded-For")
		if ipAddress == "" {
			ipAddress = c.GetHeader("X-Real-IP")
		}
		if ipAddress == "" {
			ipAddress = c.ClientIP()
		}
		if idx := strings.Index(ipAddress, ","); idx != -1 {
			ipAddress = strings.TrimSpace(ipAddress[:idx])
		}

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextIPAddress, ipAddress)
		c.Set(ContextUserAgent, c.GetHeader("User-Agent"))
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

func GetIPAddress(c *gin.Context) string {
	return c.GetString(ContextIPAddress)
}

func GetUserAgent(c *gin.Context) string {
	return c.GetString(ContextUserAgent)
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
