package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"boardapi/internal/observability"
	"boardapi/internal/services"

	"github.com/gin-gonic/gin"
)

// WriteDelay rejects a write of the given action while the caller's token
// is inside the cool-down window. The window starts only after a 201.
func WriteDelay(throttle services.Throttler, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if throttle == nil || !throttle.Enabled() || IsSuperAdmin(c) {
			c.Next()
			return
		}

		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.GetString(TokenKey)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Authorization header not found."})
			return
		}
		tokenHash := services.HashToken(token)

		ctx := c.Request.Context()
		throttled, err := throttle.IsThrottled(ctx, tokenHash, action)
		if err != nil {
			// store outage lets the write through
			slog.Warn("Throttle check failed", "action", action, "error", err)
		}
		if throttled {
			observability.ThrottleRejections.WithLabelValues(action).Inc()
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Posting too frequently. Please wait before writing again."})
			return
		}

		c.Next()

		if c.Writer.Status() != http.StatusCreated {
			return
		}
		var window time.Duration
		if cfg := CurrentConfig(c); cfg != nil {
			window = time.Duration(cfg.DelaySec) * time.Second
		}
		if err := throttle.RecordSuccess(ctx, tokenHash, action, window); err != nil {
			slog.Warn("Failed to record throttle", "action", action, "error", err)
		}
	}
}
