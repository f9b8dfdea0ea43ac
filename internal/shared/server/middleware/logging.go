package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/telemetry"
)

// quietPaths are polled by infrastructure and only logged when they fail.
var quietPaths = map[string]struct{}{
	"/metrics":       {},
	"/api/v1/health": {},
}

// Logging emits a structured log per request. Server errors log at error,
// client errors at warn.
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

		documentID, _ := c.Get("documentId")
		clientID, _ := c.Get("clientId")
		statusTransition := ""
		if raw, ok := c.Get("statusTransition"); ok {
			if s, ok := raw.(string); ok {
				statusTransition = s
			}
		}

		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && status < 500 {
			return
		}

		fields := map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": statusTransition,
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"tenant_id":         TenantIDFromContext(c),
			"user_id":           UserIDFromContext(c),
			"document_id":       documentID,
			"client_id":         clientID,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		switch {
		case status >= 500:
			telemetry.Error("request.complete", fields)
		case status >= 400:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
