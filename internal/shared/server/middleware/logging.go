package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/shared/telemetry"
)

const sessionIDKey = "sessionId"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		sessionID := c.GetString(sessionIDKey)
		analysisType, _ := c.Get("analysisType")

		telemetry.Info("request.complete", map[string]any{
			"request_id":    reqID,
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        status,
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"session_id":    sessionID,
			"analysis_type": analysisType,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}

// SessionIDFromContext fetches the session ID stored by the session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionIDKey)
}
