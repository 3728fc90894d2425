// Package extract pulls plain text out of uploaded documents so it can be
// used as a transcript.
package extract

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

// MaxDocumentSize bounds uploads and unpacked document parts.
const MaxDocumentSize = 50 << 20

// Format is a supported document type.
type Format string

// Supported formats.
const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// DetectFormat picks a format from the file name, falling back to the
// leading magic bytes.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return FormatText, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatDOCX, nil
	}

	return "", fmt.Errorf("%w: %q", models.ErrUnsupportedInput, filename)
}

// TextCache stores extracted text by content key.
type TextCache interface {
	Text(key string) (string, bool)
	SetText(key, text string)
}

// Extractor converts documents to text. Identical documents extracted
// concurrently share one conversion.
type Extractor struct {
	pdftotext string
	cache     TextCache
	group     singleflight.Group
	log       *logrus.Logger
}

// NewExtractor creates an Extractor. cache may be nil.
func NewExtractor(pdftotext string, cache TextCache, log *logrus.Logger) *Extractor {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}

	return &Extractor{pdftotext: pdftotext, cache: cache, log: log}
}

// Extract returns the text of data interpreted as format.
func (e *Extractor) Extract(ctx context.Context, format Format, data []byte) (string, error) {
	if len(data) > MaxDocumentSize {
		return "", models.ErrFieldTooLong("document", MaxDocumentSize)
	}

	sum := sha256.Sum256(data)
	key := string(format) + ":" + hex.EncodeToString(sum[:])

	if e.cache != nil {
		if text, ok := e.cache.Text(key); ok {
			return text, nil
		}
	}

	v, err, shared := e.group.Do(key, func() (any, error) {
		start := time.Now()
		defer func() {
			metrics.ExtractDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
		}()

		text, err := e.convert(ctx, format, data)
		if err != nil {
			return "", err
		}

		text = tidy(text)
		if e.cache != nil {
			e.cache.SetText(key, text)
		}

		return text, nil
	})
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"action": "extract",
			"format": format,
			"size":   len(data),
		}).Warn("document extraction failed")

		return "", err
	}

	if shared {
		e.log.WithField("format", format).Debug("extraction shared with concurrent request")
	}

	return v.(string), nil //nolint:forcetypeassert // the group only returns strings.
}

func (e *Extractor) convert(ctx context.Context, format Format, data []byte) (string, error) {
	switch format {
	case FormatText:
		return decodeText(data)
	case FormatPDF:
		return pdfText(ctx, e.pdftotext, data)
	case FormatDOCX:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedInput, format)
	}
}

// decodeText accepts UTF-8 with or without BOM and BOM-marked UTF-16.
func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}

	return string(out), nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// tidy normalizes line endings and collapses runs of blank lines.
func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	text = blankRuns.ReplaceAllString(text, "\n\n")

	if text != "" {
		text += "\n"
	}

	return text
}
