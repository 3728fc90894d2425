package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/extract"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/middleware"
	"github.com/persistorai/mindmap/internal/viewer"
	"github.com/persistorai/mindmap/internal/ws"
)

// RouterDeps holds all dependencies needed by the router. Optional fields
// may be nil; their routes then answer 503 or degrade as documented on the
// handlers.
type RouterDeps struct {
	Log         *logrus.Logger
	DB          Database
	Hub         *ws.Hub
	Graphs      GraphService
	Gallery     GalleryService
	Quiz        QuizService
	Schema      SchemaProbe
	Extractor   DocumentExtractor
	Exporter    GraphExporter
	Breaker     BreakerState
	Persister   viewer.Persister
	Attempts    AttemptRecorder
	Layout      layout.Options
	Generator   string
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize      = 10 << 20
	maxImportSize    = 64 << 20
	maxUploadSize    = extract.MaxDocumentSize + 1<<20
	rateLimit        = 100
	rateBurst        = 200
	generateRate     = 1
	generateBurst    = 5
	apiPrefix        = "/api/v1"
	metricsPath      = "/metrics"
	websocketPath    = apiPrefix + "/ws"
	corsPreflightAge = 1 * time.Hour
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize, map[string]int64{
		apiPrefix + "/upload-pdf":     maxUploadSize,
		apiPrefix + "/upload-docx":    maxUploadSize,
		apiPrefix + "/gallery/import": maxImportSize,
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition", "Retry-After"},
		MaxAge:           corsPreflightAge,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware(metricsPath, websocketPath))

	r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	hd := HealthDeps{DB: deps.DB, Schema: deps.Schema, Breaker: deps.Breaker, Generator: deps.Generator}
	if deps.Hub != nil {
		hd.Viewers = deps.Hub
	}

	health := NewHealthHandler(hd, log, deps.Version)
	graphs := NewGraphHandler(deps.Graphs, deps.Gallery, log)
	gallery := NewGalleryHandler(deps.Gallery, deps.Graphs, deps.Exporter, log)
	quizStats := NewQuizHandler(deps.Quiz, log)
	uploads := NewUploadHandler(deps.Extractor, log)
	viewers := NewViewerHandler(ctx, deps)

	// Generation and document conversion are expensive; they get a tighter
	// per-client budget on top of the global limiter.
	expensive := middleware.NewNamedRateLimiter(ctx, "generation", generateRate, generateBurst).Handler()

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Graphs.
	api.POST("/extract-graph", expensive, graphs.Extract)
	api.POST("/store-graph", expensive, graphs.Store)
	api.GET("/get-cached-graph/:hash", graphs.Cached)
	api.GET("/graphs/:hash/view", graphs.View)
	api.POST("/graphs/filter", graphs.Filter)

	// Documents.
	api.POST("/upload-pdf", expensive, uploads.PDF)
	api.POST("/upload-docx", expensive, uploads.DOCX)

	// Gallery.
	api.GET("/gallery", gallery.List)
	api.POST("/gallery", gallery.Create)
	api.POST("/gallery/import", gallery.Import)
	api.GET("/gallery/:id", gallery.Get)
	api.PUT("/gallery/:id", gallery.Update)
	api.DELETE("/gallery/:id", gallery.Delete)
	api.PUT("/gallery/:id/tags", gallery.SetTags)
	api.POST("/gallery/:id/rename", gallery.Rename)
	api.GET("/gallery/:id/export", expensive, gallery.Export)

	// Quiz statistics.
	api.GET("/quiz-stats/:graphId", quizStats.Stats)
	api.POST("/quiz-stats/:graphId/:nodeId", quizStats.Record)

	// Live viewer.
	if deps.Hub != nil {
		api.GET("/ws", viewers.Serve)
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group(apiPrefix), deps)

	return r
}
