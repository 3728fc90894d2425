// Package httputil holds the JSON error envelope shared by the API handlers
// and the middleware chain.
package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the server request id.
const RequestIDKey = "request_id"

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorBody builds the envelope for c.
func NewErrorBody(c *gin.Context, code, message string) ErrorBody {
	return ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	}
}

// RespondError writes the envelope and aborts the handler chain.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, NewErrorBody(c, code, message))
}
