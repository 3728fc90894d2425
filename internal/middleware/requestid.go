package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/httputil"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = httputil.RequestIDKey

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	clientRequestIDKey = "client_request_id"
)

// RequestID assigns a fresh server-side UUID to every request. A client
// supplied X-Request-ID is kept alongside for correlation but never becomes
// the canonical ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" && len(clientID) <= 128 {
			c.Set(clientRequestIDKey, clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Entry returns a log entry tagged with the request IDs of c.
func Entry(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	fields := logrus.Fields{}

	if id := c.GetString(RequestIDKey); id != "" {
		fields["request_id"] = id
	}

	if id := c.GetString(clientRequestIDKey); id != "" {
		fields["client_request_id"] = id
	}

	return log.WithFields(fields)
}
