package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/extract"
	"github.com/persistorai/mindmap/internal/models"
)

// uploadField is the multipart field carrying the document.
const uploadField = "file"

// UploadHandler turns uploaded documents into transcripts.
type UploadHandler struct {
	extractor DocumentExtractor
	log       *logrus.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(extractor DocumentExtractor, log *logrus.Logger) *UploadHandler {
	return &UploadHandler{extractor: extractor, log: log}
}

// PDF handles POST /api/v1/upload-pdf.
func (h *UploadHandler) PDF(c *gin.Context) { h.upload(c, extract.FormatPDF) }

// DOCX handles POST /api/v1/upload-docx.
func (h *UploadHandler) DOCX(c *gin.Context) { h.upload(c, extract.FormatDOCX) }

// upload reads the document, checks it is of the expected kind and returns
// {transcript}. Plain text files are accepted on either route.
func (h *UploadHandler) upload(c *gin.Context, want extract.Format) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "multipart field \"file\" is required")
		return
	}

	if fh.Size > extract.MaxDocumentSize {
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, models.ErrFieldTooLong("document", extract.MaxDocumentSize).Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondServiceError(c, h.log, "upload.open", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, extract.MaxDocumentSize+1))
	if err != nil {
		respondServiceError(c, h.log, "upload.read", err)
		return
	}

	format, err := extract.DetectFormat(fh.Filename, data)
	if err == nil && format != want && format != extract.FormatText {
		err = models.ErrUnsupportedInput
	}

	if err != nil {
		respondError(c, http.StatusUnsupportedMediaType, ErrCodeUnsupported, "expected a "+string(want)+" document")
		return
	}

	text, err := h.extractor.Extract(c.Request.Context(), format, data)
	if err != nil {
		if errors.Is(err, models.ErrTooLong) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
			return
		}

		respondServiceError(c, h.log, "upload.extract", err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "upload.extract", "format": format, "bytes": len(data), "chars": len(text)}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"transcript": text})
}
