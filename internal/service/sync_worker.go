package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

const syncWriteTimeout = 10 * time.Second

// SnapshotSaver stores a mutated graph in the gallery.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, g *models.Graph) error
}

// GraphStorer re-caches a graph under its transcript.
type GraphStorer interface {
	Store(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error)
}

// AttemptRecorder persists one quiz attempt.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, graphID, nodeID, label string, correct bool) (models.QuizStat, error)
}

// SyncJob is one write queued by a viewer session. Exactly one of Graph or
// Attempt is set.
type SyncJob struct {
	Graph   *models.Graph
	Attempt *AttemptJob
}

// AttemptJob is a quiz answer to persist.
type AttemptJob struct {
	GraphID string
	NodeID  string
	Label   string
	Correct bool
}

// SyncWorker writes viewer snapshots and quiz attempts through a single
// goroutine. Writes are best-effort: failures are logged and dropped.
type SyncWorker struct {
	gallery SnapshotSaver
	graphs  GraphStorer
	quiz    AttemptRecorder
	log     *logrus.Logger
	jobs    chan *SyncJob
}

// NewSyncWorker creates a SyncWorker with the given queue capacity.
func NewSyncWorker(gallery SnapshotSaver, graphs GraphStorer, quiz AttemptRecorder, log *logrus.Logger, queueSize int) *SyncWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &SyncWorker{
		gallery: gallery,
		graphs:  graphs,
		quiz:    quiz,
		log:     log,
		jobs:    make(chan *SyncJob, queueSize),
	}
}

// Persist queues a graph snapshot. It never blocks.
func (w *SyncWorker) Persist(g *models.Graph) {
	w.enqueue(&SyncJob{Graph: g})
}

// RecordAttempt queues a quiz attempt. Its signature matches the after-hook
// of quiz.MemoryStats.
func (w *SyncWorker) RecordAttempt(graphID, nodeID, label string, correct bool) {
	if graphID == "" {
		return
	}

	w.enqueue(&SyncJob{Attempt: &AttemptJob{GraphID: graphID, NodeID: nodeID, Label: label, Correct: correct}})
}

func (w *SyncWorker) enqueue(job *SyncJob) {
	select {
	case w.jobs <- job:
		metrics.SyncQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.SyncDropped.Inc()
		w.log.WithField("action", "sync.enqueue").Warn("sync queue full, dropping write")
	}
}

// Run processes jobs until ctx is cancelled, then drains what is queued.
func (w *SyncWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *SyncWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *SyncWorker) process(job *SyncJob) {
	defer metrics.SyncQueueDepth.Set(float64(len(w.jobs)))

	ctx, cancel := context.WithTimeout(context.Background(), syncWriteTimeout)
	defer cancel()

	if job.Attempt != nil {
		a := job.Attempt
		if _, err := w.quiz.RecordAttempt(ctx, a.GraphID, a.NodeID, a.Label, a.Correct); err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"action":   "sync.quiz",
				"graph_id": a.GraphID,
				"node_id":  a.NodeID,
			}).Warn("persisting quiz attempt failed")
		}

		return
	}

	g := job.Graph
	if g == nil {
		return
	}

	log := w.log.WithFields(logrus.Fields{"action": "sync.graph", "graph_id": g.ID()})

	if g.ID() != "" {
		if err := w.gallery.SaveSnapshot(ctx, g); err != nil {
			log.WithError(err).Warn("saving gallery snapshot failed")
		}
	}

	if t := g.Transcript(); strings.TrimSpace(t) != "" {
		if _, err := w.graphs.Store(ctx, t, g); err != nil {
			log.WithError(err).Warn("re-caching graph failed")
		}
	}
}
