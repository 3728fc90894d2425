package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/filter"
	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
)

// viewIterations is the stabilization budget for read-only views.
const viewIterations = 300

// GraphHandler serves graph generation, the cache and read-only views.
type GraphHandler struct {
	svc     GraphService
	resolve resolver
	log     *logrus.Logger
}

// NewGraphHandler creates a GraphHandler. gallery is used to resolve view
// ids that are not transcript hashes and may be nil.
func NewGraphHandler(svc GraphService, gallery GalleryService, log *logrus.Logger) *GraphHandler {
	return &GraphHandler{svc: svc, resolve: resolver{graphs: svc, gallery: gallery}, log: log}
}

// Extract handles POST /api/v1/extract-graph.
func (h *GraphHandler) Extract(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	g, err := h.svc.Extract(c.Request.Context(), req.Transcript)
	if err != nil {
		respondServiceError(c, h.log, "graph.extract", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "graph.extract", "graph_id": g.ID(), "nodes": len(g.Nodes)}).Info("audit")

	c.JSON(http.StatusOK, g)
}

// Store handles POST /api/v1/store-graph.
func (h *GraphHandler) Store(c *gin.Context) {
	var req models.StoreGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	g, err := h.svc.Store(c.Request.Context(), req.Transcript, req.Graph)
	if err != nil {
		respondServiceError(c, h.log, "graph.store", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "graph.store", "graph_id": g.ID()}).Info("audit")

	c.JSON(http.StatusOK, g)
}

// Cached handles GET /api/v1/get-cached-graph/:hash.
func (h *GraphHandler) Cached(c *gin.Context) {
	hash := c.Param("hash")
	if err := models.ValidateHash(hash); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	g, err := h.svc.Cached(c.Request.Context(), hash)
	if err != nil {
		respondServiceError(c, h.log, "graph.cached", err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// View handles GET /api/v1/graphs/:hash/view. It lays out the graph, or the
// part matching ?q=, and returns the framed positions.
func (h *GraphHandler) View(c *gin.Context) {
	id := c.Param("hash")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	g, err := h.resolve.resolve(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, "graph.view", err)
		return
	}

	engine := layout.NewEngine(layout.Options{
		Mode:                    layout.ParseMode(c.Query("mode")),
		StabilizationIterations: viewIterations,
	}, h.log)

	if err := engine.Load(g); err != nil {
		respondServiceError(c, h.log, "graph.view", err)
		return
	}

	if term := c.Query("q"); term != "" {
		engine.SetView(filter.Filter(g, term), time.Now())
		engine.Stabilize(viewIterations)
		engine.Fit()
	}

	c.JSON(http.StatusOK, engine.Frame())
}

type filterRequest struct {
	Graph *models.Graph `json:"graph"`
	Term  string        `json:"term"`
}

type filterResponse struct {
	Term    string         `json:"term"`
	Full    bool           `json:"full"`
	Matched []string       `json:"matched"`
	Nodes   []*models.Node `json:"nodes"`
	Links   []*models.Link `json:"links"`
}

// Filter handles POST /api/v1/graphs/filter.
func (h *GraphHandler) Filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	if err := graph.Validate(req.Graph); err != nil {
		respondServiceError(c, h.log, "graph.filter", err)
		return
	}

	v := filter.Filter(req.Graph, req.Term)

	resp := filterResponse{
		Term:    v.Term,
		Full:    v.Full,
		Matched: make([]string, 0, len(v.Matched)),
		Nodes:   v.Nodes,
		Links:   v.Links,
	}

	for _, n := range v.Nodes {
		if v.Matched[n.ID.Key()] {
			resp.Matched = append(resp.Matched, n.ID.Key())
		}
	}

	c.JSON(http.StatusOK, resp)
}
