package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/export"
)

// exportTimeout bounds one off-screen render.
const exportTimeout = 30 * time.Second

// Import handles POST /api/v1/gallery/import. The body is the JSON array the
// browser client stored under galleryMaps.
func (h *GalleryHandler) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	n, err := h.svc.Import(c.Request.Context(), data)
	if err != nil {
		respondServiceError(c, h.log, "gallery.import", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.import", "imported": n}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// Export handles GET /api/v1/gallery/:id/export?format=png|jpg|pdf.
func (h *GalleryHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "export is not configured")
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "gallery.export", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := h.exporter.Export(ctx, e.Graph, format, &buf); err != nil {
		respondServiceError(c, h.log, "gallery.export", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.export", "gallery_id": id, "format": format}).Info("audit")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
