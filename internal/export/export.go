// Package export renders a graph off-screen and encodes it as PNG, JPEG or
// a single-page PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

// ErrBlankRender is returned when no capture produced a visible image.
var ErrBlankRender = errors.New("export rendered an empty image")

// Format is an export encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts png, jpg/jpeg and pdf in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: export format %q", models.ErrUnsupportedInput, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Filename returns the download name used by the web client.
func (f Format) Filename() string {
	return "graph." + string(f)
}

// Options tunes the off-screen render.
type Options struct {
	Width, Height int
	Iterations    int
	FirstCapture  time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// DefaultOptions matches the interactive canvas: 800x600, 100 stabilization
// iterations, first capture after 300ms, then every 100ms.
func DefaultOptions() Options {
	return Options{
		Width:         800,
		Height:        600,
		Iterations:    100,
		FirstCapture:  300 * time.Millisecond,
		RetryInterval: 100 * time.Millisecond,
		MaxRetries:    10,
	}
}

// Exporter renders graphs for download.
type Exporter struct {
	opts Options
	log  *logrus.Logger
}

// NewExporter creates an Exporter.
func NewExporter(opts Options, log *logrus.Logger) *Exporter {
	return &Exporter{opts: opts, log: log}
}

// Export writes g to w in format f.
func (e *Exporter) Export(ctx context.Context, g *models.Graph, f Format, w io.Writer) error {
	img, err := e.capture(ctx, g)
	if err != nil {
		return err
	}

	switch f {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
	case FormatPDF:
		return writePDF(w, img)
	default:
		return png.Encode(w, img)
	}
}

// capture stabilizes the layout and grabs frames until one is not blank.
// The physics keeps running between attempts.
func (e *Exporter) capture(ctx context.Context, g *models.Graph) (image.Image, error) {
	engine := layout.NewEngine(layout.Options{
		Width:                   float64(e.opts.Width),
		Height:                  float64(e.opts.Height),
		StabilizationIterations: e.opts.Iterations,
	}, e.log)

	if err := engine.Load(g); err != nil {
		return nil, err
	}

	wait := e.opts.FirstCapture

	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.ExportAttempts.WithLabelValues("cancelled").Inc()

			return nil, ctx.Err()
		case now := <-timer.C:
			engine.Tick(now)
		}

		img := layout.Render(engine.Frame())
		if !layout.Blank(img) {
			metrics.ExportAttempts.WithLabelValues("ok").Inc()
			return img, nil
		}

		metrics.ExportAttempts.WithLabelValues("blank").Inc()
		e.log.WithFields(logrus.Fields{
			"action":  "export.capture",
			"attempt": attempt + 1,
		}).Debug("capture was blank, retrying")

		wait = e.opts.RetryInterval
	}

	return nil, ErrBlankRender
}

// writePDF places the image at 10,10 sized 180x135mm on an A4 page.
func writePDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding pdf image: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreator("mindmap", true)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("graph", opt, &buf)
	pdf.ImageOptions("graph", 10, 10, 180, 135, false, opt, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}

	return nil
}
