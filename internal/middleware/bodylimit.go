package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySize limits request bodies to maxBytes. Routes listed in overrides
// (keyed by route pattern, e.g. "/api/v1/upload-pdf") get their own limit.
func MaxBodySize(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if l, ok := overrides[c.FullPath()]; ok {
			limit = l
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
