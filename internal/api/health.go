// Package api provides the HTTP and WebSocket handlers of the mindmap server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/db"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db        Database
	schema    SchemaProbe
	viewers   ClientCounter
	breaker   BreakerState
	generator string
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// HealthDeps groups the optional probes used by HealthHandler. Nil fields
// are reported as not configured.
type HealthDeps struct {
	DB        Database
	Schema    SchemaProbe
	Viewers   ClientCounter
	Breaker   BreakerState
	Generator string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(deps HealthDeps, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		db:        deps.DB,
		schema:    deps.Schema,
		viewers:   deps.Viewers,
		breaker:   deps.Breaker,
		generator: deps.Generator,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	SchemaVersion int     `json:"schema_version"`
	Database      string  `json:"database"`
	DBConns       string  `json:"db_conns,omitempty"`
	Generator     string  `json:"generator"`
	Breaker       string  `json:"breaker,omitempty"`
	Viewers       int     `json:"viewers"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health. It always answers 200.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		SchemaVersion: db.SchemaVersion(),
		Database:      "not_configured",
		Generator:     h.generator,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp.Database = "connected"
		if err := h.db.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}

		acquired, total := h.db.Stats()
		resp.DBConns = fmt.Sprintf("%d/%d", acquired, total)
	}

	if h.breaker != nil {
		resp.Breaker = h.breaker.State()
	}

	if h.viewers != nil {
		resp.Viewers = h.viewers.ClientCount()
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. The database and schema must answer;
// an open generator circuit only degrades the result.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{"database": "ok", "schema": "ok", "generator": "ok"}
	status, code := "ready", http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.db == nil {
		checks["database"] = "error"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
	}

	switch {
	case checks["database"] != "ok":
		checks["schema"] = "unknown"
	case h.schema != nil:
		if _, err := h.schema.CountGallery(ctx); err != nil {
			h.log.WithError(err).Error("readiness: schema check failed")
			checks["schema"] = "error"
		}
	}

	if checks["database"] != "ok" || checks["schema"] == "error" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	if h.breaker != nil && h.breaker.State() == "open" {
		checks["generator"] = "degraded"
	}

	c.JSON(code, readinessResponse{Status: status, Checks: checks})
}
