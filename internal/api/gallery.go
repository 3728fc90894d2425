package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/middleware"
	"github.com/persistorai/mindmap/internal/models"
)

// GalleryHandler serves the saved graph gallery.
type GalleryHandler struct {
	svc      GalleryService
	graphs   GraphService
	exporter GraphExporter
	log      *logrus.Logger
}

// NewGalleryHandler creates a GalleryHandler. graphs keeps the cache in step
// with renames and may be nil; exporter may be nil when export is disabled.
func NewGalleryHandler(svc GalleryService, graphs GraphService, exporter GraphExporter, log *logrus.Logger) *GalleryHandler {
	return &GalleryHandler{svc: svc, graphs: graphs, exporter: exporter, log: log}
}

// List handles GET /api/v1/gallery.
func (h *GalleryHandler) List(c *gin.Context) {
	q := models.GalleryQuery{
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Limit:  parseLimit(c.Query("limit")),
		Offset: parseOffset(c.Query("offset")),
	}

	entries, hasMore, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, h.log, "gallery.list", err)
		return
	}

	if entries == nil {
		entries = []models.GalleryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
}

// Get handles GET /api/v1/gallery/:id.
func (h *GalleryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "gallery.get", err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// Create handles POST /api/v1/gallery.
func (h *GalleryHandler) Create(c *gin.Context) {
	var req models.UpsertGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	h.save(c, req, http.StatusCreated)
}

// Update handles PUT /api/v1/gallery/:id.
func (h *GalleryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpsertGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	req.ID = id
	h.save(c, req, http.StatusOK)
}

func (h *GalleryHandler) save(c *gin.Context, req models.UpsertGalleryRequest, status int) {
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	e, err := h.svc.Save(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "gallery.save", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.save", "gallery_id": e.ID}).Info("audit")

	c.JSON(status, e)
}

// SetTags handles PUT /api/v1/gallery/:id/tags.
func (h *GalleryHandler) SetTags(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.SetTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	e, err := h.svc.SetTags(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, h.log, "gallery.tags", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.tags", "gallery_id": id, "tags": len(e.Tags)}).Info("audit")

	c.JSON(http.StatusOK, e)
}

// Delete handles DELETE /api/v1/gallery/:id.
func (h *GalleryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, "gallery.delete", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.delete", "gallery_id": id}).Info("audit")

	c.Status(http.StatusNoContent)
}

// Rename handles POST /api/v1/gallery/:id/rename. It changes one node label
// or edge relation and re-caches the graph when it has a transcript.
func (h *GalleryHandler) Rename(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	ctx := c.Request.Context()

	e, err := h.svc.Get(ctx, id)
	if err != nil {
		respondServiceError(c, h.log, "gallery.rename", err)
		return
	}

	kind, target := graph.KindNode, graph.NodeTarget(models.ParseNodeID(req.ID))
	if req.Kind == "edge" {
		kind, target = graph.KindEdge, graph.EdgeTarget(models.ParseNodeID(req.Source), models.ParseNodeID(req.Target))
	}

	if !hasTarget(e.Graph, kind, target) {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, models.ErrUnknownNode.Error())
		return
	}

	next := graph.ApplyRename(e.Graph, kind, target, req.Label)

	saved, err := h.svc.Save(ctx, models.UpsertGalleryRequest{ID: e.ID, Title: e.Title, Tags: e.Tags, Graph: next})
	if err != nil {
		respondServiceError(c, h.log, "gallery.rename", err)
		return
	}

	if t := next.Transcript(); t != "" && h.graphs != nil {
		if _, err := h.graphs.Store(ctx, t, next); err != nil {
			middleware.Entry(c, h.log).WithError(err).WithField("gallery_id", id).Warn("re-caching renamed graph failed")
		}
	}

	h.log.WithFields(logrus.Fields{"action": "gallery.rename", "gallery_id": id, "kind": req.Kind}).Info("audit")

	c.JSON(http.StatusOK, saved)
}

func hasTarget(g *models.Graph, kind graph.TargetKind, target graph.Target) bool {
	if g == nil {
		return false
	}

	if kind == graph.KindEdge {
		l, _ := g.LinkByKey(target.Edge)
		return l != nil
	}

	n, _ := g.NodeByID(target.Node)

	return n != nil
}

func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return "", false
	}

	return id, true
}
