package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingID         = errors.New("id is required")
	ErrMissingTranscript = errors.New("transcript is required")
	ErrMissingGraph      = errors.New("graph is required")
	ErrMissingLabel      = errors.New("label is required")
	ErrInvalidHash       = errors.New("hash must be 64 lowercase hex characters")
	ErrTooLong           = errors.New("value too long")
)

// ErrMalformedGraph wraps every structural problem found in a graph.
var ErrMalformedGraph = errors.New("malformed graph")

// Sentinel errors for lookups.
var (
	ErrUnknownNode      = errors.New("node not found")
	ErrGraphNotFound    = errors.New("graph not found")
	ErrGalleryNotFound  = errors.New("gallery entry not found")
	ErrCacheMiss        = errors.New("cache miss")
	ErrUnsupportedInput = errors.New("unsupported document type")
)

// ErrFieldTooLong returns an ErrTooLong naming the field and its limit.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrTooLong, field, maxLen)
}
