package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/export"
	"github.com/persistorai/mindmap/internal/generate"
	"github.com/persistorai/mindmap/internal/httputil"
	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/middleware"
	"github.com/persistorai/mindmap/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeValidationError = "validation_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnsupported     = "unsupported_media_type"
	ErrCodeTooLarge        = "payload_too_large"
	ErrCodeUnavailable     = "service_unavailable"
	ErrCodeMalformedGraph  = "malformed_graph"
	ErrCodeInternalError   = "internal_error"
	ErrCodeRenderFailed    = "render_failed"
	internalErrorMessage   = "internal server error"
	invalidBodyMessage     = "invalid request body"
)

// respondError writes a standardized JSON error response and counts it.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service error onto a status code. Unknown errors
// are logged and reported as 500 without detail.
func respondServiceError(c *gin.Context, log *logrus.Logger, action string, err error) {
	switch {
	case errors.Is(err, models.ErrGalleryNotFound),
		errors.Is(err, models.ErrGraphNotFound),
		errors.Is(err, models.ErrCacheMiss),
		errors.Is(err, models.ErrUnknownNode):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrMalformedGraph):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeMalformedGraph, err.Error())
	case errors.Is(err, models.ErrUnsupportedInput):
		respondError(c, http.StatusUnsupportedMediaType, ErrCodeUnsupported, err.Error())
	case errors.Is(err, models.ErrInvalidHash),
		errors.Is(err, models.ErrMissingID),
		errors.Is(err, models.ErrMissingTranscript),
		errors.Is(err, models.ErrMissingGraph),
		errors.Is(err, models.ErrMissingLabel),
		errors.Is(err, models.ErrTooLong):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, generate.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "graph generation is temporarily unavailable")
	case errors.Is(err, export.ErrBlankRender):
		respondError(c, http.StatusInternalServerError, ErrCodeRenderFailed, err.Error())
	default:
		middleware.Entry(c, log).WithError(err).WithField("action", action).Error("request failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, internalErrorMessage)
	}
}
