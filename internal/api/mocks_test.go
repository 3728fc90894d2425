package api_test

import (
	"context"
	"io"

	"github.com/persistorai/mindmap/internal/export"
	"github.com/persistorai/mindmap/internal/extract"
	"github.com/persistorai/mindmap/internal/models"
)

// mockGraphService implements api.GraphService for testing.
type mockGraphService struct {
	extractFn func(ctx context.Context, transcript string) (*models.Graph, error)
	storeFn   func(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error)
	cachedFn  func(ctx context.Context, hash string) (*models.Graph, error)
}

func (m *mockGraphService) Extract(ctx context.Context, transcript string) (*models.Graph, error) {
	return m.extractFn(ctx, transcript)
}

func (m *mockGraphService) Store(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error) {
	return m.storeFn(ctx, transcript, g)
}

func (m *mockGraphService) Cached(ctx context.Context, hash string) (*models.Graph, error) {
	if m.cachedFn == nil {
		return nil, models.ErrCacheMiss
	}

	return m.cachedFn(ctx, hash)
}

// mockGalleryService implements api.GalleryService for testing.
type mockGalleryService struct {
	listFn    func(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error)
	getFn     func(ctx context.Context, id string) (*models.GalleryEntry, error)
	saveFn    func(ctx context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error)
	setTagsFn func(ctx context.Context, id string, req models.SetTagsRequest) (*models.GalleryEntry, error)
	deleteFn  func(ctx context.Context, id string) error
	importFn  func(ctx context.Context, data []byte) (int, error)
}

func (m *mockGalleryService) List(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error) {
	return m.listFn(ctx, q)
}

func (m *mockGalleryService) Get(ctx context.Context, id string) (*models.GalleryEntry, error) {
	if m.getFn == nil {
		return nil, models.ErrGalleryNotFound
	}

	return m.getFn(ctx, id)
}

func (m *mockGalleryService) Save(ctx context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
	if m.saveFn == nil {
		return &models.GalleryEntry{ID: req.ID, Title: req.Title, Tags: req.Tags, Graph: req.Graph}, nil
	}

	return m.saveFn(ctx, req)
}

func (m *mockGalleryService) SetTags(ctx context.Context, id string, req models.SetTagsRequest) (*models.GalleryEntry, error) {
	return m.setTagsFn(ctx, id, req)
}

func (m *mockGalleryService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockGalleryService) Import(ctx context.Context, data []byte) (int, error) {
	return m.importFn(ctx, data)
}

// mockQuizService implements api.QuizService for testing.
type mockQuizService struct {
	recordFn func(ctx context.Context, graphID, nodeID string, req models.RecordAttemptRequest) (models.QuizStat, error)
	statsFn  func(ctx context.Context, graphID string) (map[string]models.QuizStat, error)
}

func (m *mockQuizService) RecordAttempt(ctx context.Context, graphID, nodeID string, req models.RecordAttemptRequest) (models.QuizStat, error) {
	return m.recordFn(ctx, graphID, nodeID, req)
}

func (m *mockQuizService) Stats(ctx context.Context, graphID string) (map[string]models.QuizStat, error) {
	return m.statsFn(ctx, graphID)
}

// mockExtractor implements api.DocumentExtractor for testing.
type mockExtractor struct {
	fn func(ctx context.Context, format extract.Format, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, format extract.Format, data []byte) (string, error) {
	return m.fn(ctx, format, data)
}

// mockExporter implements api.GraphExporter for testing.
type mockExporter struct {
	fn func(ctx context.Context, g *models.Graph, f export.Format, w io.Writer) error
}

func (m *mockExporter) Export(ctx context.Context, g *models.Graph, f export.Format, w io.Writer) error {
	return m.fn(ctx, g, f, w)
}

// mockDB implements api.Database for testing.
type mockDB struct {
	err error
}

func (m *mockDB) HealthCheck(context.Context) error { return m.err }

func (m *mockDB) Stats() (acquired, total int32) { return 1, 4 }

// mockSchema implements api.SchemaProbe for testing.
type mockSchema struct {
	err error
}

func (m *mockSchema) CountGallery(context.Context) (int, error) { return 0, m.err }

// mockBreaker implements api.BreakerState for testing.
type mockBreaker struct {
	state string
}

func (m *mockBreaker) State() string { return m.state }
