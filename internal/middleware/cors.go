package middleware

import (
	"slices"

	"github.com/m1z23r/drift/pkg/drift"
)

// AllowCredentials lets browsers send the session cookie on cross-origin calls from the listed
// origins. It runs ahead of the CORS middleware so preflight answers carry the header too.
func AllowCredentials(origins []string) drift.HandlerFunc {
	return func(c *drift.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && slices.Contains(origins, origin) {
			h := c.Response.Header()
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		c.Next()
	}
}
