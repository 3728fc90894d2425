package api

import (
	"context"
	"io"

	"github.com/persistorai/mindmap/internal/domain"
	"github.com/persistorai/mindmap/internal/export"
	"github.com/persistorai/mindmap/internal/extract"
	"github.com/persistorai/mindmap/internal/models"
)

// GraphService is the graph generation and cache API used by GraphHandler.
type GraphService = domain.GraphService

// GalleryService is the gallery API used by GalleryHandler.
type GalleryService = domain.GalleryService

// QuizService is the quiz statistics API used by QuizHandler.
type QuizService = domain.QuizService

// DocumentExtractor turns an uploaded document into transcript text.
type DocumentExtractor interface {
	Extract(ctx context.Context, format extract.Format, data []byte) (string, error)
}

// GraphExporter renders a graph for download.
type GraphExporter interface {
	Export(ctx context.Context, g *models.Graph, f export.Format, w io.Writer) error
}

// Database reports connectivity and pool usage.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() (acquired, total int32)
}

// SchemaProbe runs a cheap query against a migrated table.
type SchemaProbe interface {
	CountGallery(ctx context.Context) (int, error)
}

// BreakerState reports the generator circuit state.
type BreakerState interface {
	State() string
}

// ClientCounter reports connected viewers.
type ClientCounter interface {
	ClientCount() int
}
