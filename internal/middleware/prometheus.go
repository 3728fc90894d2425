package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/mindmap/internal/metrics"
)

// PrometheusMiddleware records HTTP request duration and count. Paths in skip
// (route patterns such as the metrics endpoint or long-lived sockets) are not
// recorded.
func PrometheusMiddleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *gin.Context) {
		path := c.FullPath() // route pattern keeps label cardinality bounded
		if skipped[path] {
			c.Next()

			return
		}

		start := time.Now()
		c.Next()

		if path == "" {
			path = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
