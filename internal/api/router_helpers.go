package api

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/middleware"
)

// Pagination caps.
const (
	defaultPageSize     = 50
	maxPaginationLimit  = 500
	maxPaginationOffset = 100000
	maxPathIDLen        = 255
)

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := middleware.Entry(c, log).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})

		if c.Writer.Status() >= 500 {
			entry.Warn("request")
			return
		}

		entry.Info("request")
	}
}

func parseLimit(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultPageSize
	}

	return min(v, maxPaginationLimit)
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	return min(v, maxPaginationOffset)
}

var errBadPathID = errors.New("id must be 1 to 255 characters")

// validatePathID checks a path parameter id.
func validatePathID(id string) error {
	if id == "" || len(id) > maxPathIDLen {
		return errBadPathID
	}

	return nil
}

// originPatterns turns CORS origins into WebSocket origin host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))

	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}

		out = append(out, u.Host)
	}

	return out
}
