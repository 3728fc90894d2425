// Package domain defines the canonical store and service interfaces shared
// by the service layer, the REST API and the live viewer socket. Consumers
// depend on these rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/mindmap/internal/models"
)

// GraphCacheStore persists generated graphs keyed by transcript hash.
type GraphCacheStore interface {
	GetGraph(ctx context.Context, hash string) (*models.Graph, error)
	PutGraph(ctx context.Context, hash, transcript string, g *models.Graph) error
}

// GalleryStore persists saved graphs.
type GalleryStore interface {
	ListGallery(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error)
	GetGallery(ctx context.Context, id string) (*models.GalleryEntry, error)
	UpsertGallery(ctx context.Context, e *models.GalleryEntry) (*models.GalleryEntry, error)
	SaveGalleryGraph(ctx context.Context, e *models.GalleryEntry) error
	SetGalleryTags(ctx context.Context, id string, tags []string) (*models.GalleryEntry, error)
	DeleteGallery(ctx context.Context, id string) error
	ImportGallery(ctx context.Context, entries []models.GalleryEntry) (int, error)
	CountGallery(ctx context.Context) (int, error)
}

// QuizStatsStore persists quiz attempt counters.
type QuizStatsStore interface {
	RecordAttempt(ctx context.Context, graphID, nodeID, label string, correct bool) (models.QuizStat, error)
	GraphStats(ctx context.Context, graphID string) (map[string]models.QuizStat, error)
}

// GraphService generates, caches and serves graphs.
type GraphService interface {
	Extract(ctx context.Context, transcript string) (*models.Graph, error)
	Store(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error)
	Cached(ctx context.Context, hash string) (*models.Graph, error)
}

// GalleryService manages saved graphs.
type GalleryService interface {
	List(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error)
	Get(ctx context.Context, id string) (*models.GalleryEntry, error)
	Save(ctx context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error)
	SetTags(ctx context.Context, id string, req models.SetTagsRequest) (*models.GalleryEntry, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, data []byte) (int, error)
}

// QuizService records and reports quiz attempts.
type QuizService interface {
	RecordAttempt(ctx context.Context, graphID, nodeID string, req models.RecordAttemptRequest) (models.QuizStat, error)
	Stats(ctx context.Context, graphID string) (map[string]models.QuizStat, error)
}
