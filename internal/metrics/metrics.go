// Package metrics defines Prometheus metrics for the mindmap server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindmap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmap_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmap_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmap_graph_cache_lookups_total",
			Help: "Graph cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	GenerateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindmap_generate_duration_seconds",
			Help:    "Transcript to graph generation time",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"generator", "outcome"},
	)

	ExtractDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindmap_extract_duration_seconds",
			Help:    "Document text extraction time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	SyncQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindmap_sync_queue_depth",
			Help: "Pending snapshot and quiz writes",
		},
	)

	SyncDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mindmap_sync_dropped_total",
			Help: "Snapshot and quiz writes dropped because the queue was full",
		},
	)

	ExportAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmap_export_attempts_total",
			Help: "Raster capture attempts by outcome",
		},
		[]string{"outcome"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindmap_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	ViewerSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindmap_viewer_sessions",
			Help: "Running interactive viewer sessions",
		},
	)

	GalleryCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindmap_gallery_entries",
			Help: "Saved gallery entries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		CacheLookups, GenerateDuration, ExtractDuration,
		SyncQueueDepth, SyncDropped, ExportAttempts,
		WSConnections, ViewerSessions, GalleryCount,
	)
}
