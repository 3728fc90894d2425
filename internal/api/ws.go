package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
	"github.com/persistorai/mindmap/internal/quiz"
	"github.com/persistorai/mindmap/internal/viewer"
	"github.com/persistorai/mindmap/internal/ws"
)

// statsLoadTimeout bounds the quiz stats preload before a session starts.
const statsLoadTimeout = 3 * time.Second

// AttemptRecorder receives quiz answers from live sessions without blocking.
type AttemptRecorder interface {
	RecordAttempt(graphID, nodeID, label string, correct bool)
}

// ViewerHandler upgrades GET /api/v1/ws into a live viewer session. The
// optional ?graph= parameter names a transcript hash or gallery id to open;
// without it the session waits for a replace input.
type ViewerHandler struct {
	appCtx    context.Context //nolint:containedctx // sessions end with the server.
	hub       *ws.Hub
	resolve   resolver
	quiz      QuizService
	persister viewer.Persister
	attempts  AttemptRecorder
	origins   []string
	layout    layout.Options
	log       *logrus.Logger
}

// NewViewerHandler creates a ViewerHandler. quiz, persister and attempts may
// be nil.
func NewViewerHandler(appCtx context.Context, deps *RouterDeps) *ViewerHandler {
	return &ViewerHandler{
		appCtx:    appCtx,
		hub:       deps.Hub,
		resolve:   resolver{graphs: deps.Graphs, gallery: deps.Gallery},
		quiz:      deps.Quiz,
		persister: deps.Persister,
		attempts:  deps.Attempts,
		origins:   originPatterns(deps.CORSOrigins),
		layout:    deps.Layout,
		log:       deps.Log,
	}
}

// Serve handles GET /api/v1/ws.
func (h *ViewerHandler) Serve(c *gin.Context) {
	var (
		g    *models.Graph
		room = c.Query("graph")
	)

	if room != "" {
		if err := validatePathID(room); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}

		var err error
		if g, err = h.resolve.resolve(c.Request.Context(), room); err != nil {
			respondServiceError(c, h.log, "viewer.open", err)
			return
		}
	}

	stats := h.loadStats(c.Request.Context(), room)

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns:       h.origins,
		CompressionMode:      websocket.CompressionContextTakeover,
		CompressionThreshold: 256,
	})
	if err != nil {
		h.log.WithError(err).Warn("websocket accept failed")
		return
	}

	client := ws.NewClient(h.hub, conn, room)
	h.hub.Register(client)

	opts := viewer.Options{
		GraphID:   room,
		Layout:    h.layout,
		Stats:     stats,
		Shuffler:  quiz.RandomShuffler,
		Persister: h.persister,
		OnUpdate:  client.Deliver,
	}
	session := viewer.NewSession(g, opts, h.log)

	ctx, cancel := context.WithCancel(h.appCtx)
	defer cancel()

	go func() {
		select {
		case <-c.Request.Context().Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	metrics.ViewerSessions.Inc()
	defer metrics.ViewerSessions.Dec()

	h.log.WithFields(logrus.Fields{"action": "viewer.open", "room": room}).Info("audit")

	client.Serve(ctx, session)
}

// loadStats seeds a session's quiz recorder with the persisted counters.
// Failures only cost the history; the session still starts.
func (h *ViewerHandler) loadStats(ctx context.Context, graphID string) *quiz.MemoryStats {
	var after func(graphID, nodeID, label string, correct bool)
	if h.attempts != nil {
		after = h.attempts.RecordAttempt
	}

	stats := quiz.NewMemoryStats(after)
	if graphID == "" || h.quiz == nil {
		return stats
	}

	ctx, cancel := context.WithTimeout(ctx, statsLoadTimeout)
	defer cancel()

	prior, err := h.quiz.Stats(ctx, graphID)
	if err != nil {
		h.log.WithError(err).WithField("graph_id", graphID).Warn("loading quiz stats failed")
		return stats
	}

	stats.Load(graphID, prior)

	return stats
}
