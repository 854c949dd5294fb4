package middleware

import (
	"mime"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
)

// BodyParser parses JSON and form bodies up to maxBytes. Multipart requests pass through
// untouched so upload handlers can stream the file under their own size limit.
func BodyParser(maxBytes int64) drift.HandlerFunc {
	parse := driftmw.BodyParserWithConfig(driftmw.BodyParserConfig{MaxBodySize: maxBytes})
	return func(c *drift.Context) {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err == nil && strings.HasPrefix(mediaType, "multipart/") {
			c.Next()
			return
		}
		parse(c)
	}
}
