package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Runs after AuditMiddleware so the
// audit fields are available.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", GetIPAddress(c)),
			zap.String("user_agent", GetUserAgent(c)),
			zap.String("request_id", GetRequestID(c)),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Recovery turns panics into a 500 and logs them.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", GetRequestID(c)),
		)
		c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
	})
}

// ErrorHandler answers requests whose handler attached an error with c.Error
// without writing a response.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			logger.Error("request failed",
				zap.Error(e.Err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
		}
		if !c.Writer.Written() {
			c.JSON(500, gin.H{"error": "internal server error"})
		}
	}
}
