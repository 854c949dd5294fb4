package middleware

import (
	"log/slog"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

func RequestLogger() drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if user := GetUser(c); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		if tabID := GetTabID(c); tabID != "" {
			attrs = append(attrs, "tab_id", tabID)
		}
		slog.Info("request", attrs...)
	}
}
