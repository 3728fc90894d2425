package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func decodeGraph(t *testing.T, raw string) *models.Graph {
	t.Helper()

	var g models.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decoding graph: %v", err)
	}

	return &g
}

// calls records method names for mocks.
type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *calls) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, got := range c.names {
		if got == name {
			n++
		}
	}

	return n
}

// mockMemory is a map-backed GraphCache.
type mockMemory struct {
	calls
	graphs map[string]*models.Graph
}

func newMockMemory() *mockMemory {
	return &mockMemory{graphs: map[string]*models.Graph{}}
}

func (m *mockMemory) Graph(hash string) (*models.Graph, bool) {
	m.record("Graph")
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.graphs[hash]

	return g, ok
}

func (m *mockMemory) SetGraph(hash string, g *models.Graph) {
	m.record("SetGraph")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[hash] = g
}

// mockCacheStore records calls and returns configured responses.
type mockCacheStore struct {
	calls

	getGraph func(ctx context.Context, hash string) (*models.Graph, error)
	putGraph func(ctx context.Context, hash, transcript string, g *models.Graph) error
}

func (m *mockCacheStore) GetGraph(ctx context.Context, hash string) (*models.Graph, error) {
	m.record("GetGraph")
	if m.getGraph == nil {
		return nil, models.ErrCacheMiss
	}

	return m.getGraph(ctx, hash)
}

func (m *mockCacheStore) PutGraph(ctx context.Context, hash, transcript string, g *models.Graph) error {
	m.record("PutGraph")
	if m.putGraph == nil {
		return nil
	}

	return m.putGraph(ctx, hash, transcript, g)
}

// mockGenerator returns a configured graph.
type mockGenerator struct {
	calls

	generate func(ctx context.Context, transcript string) (*models.Graph, error)
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, transcript string) (*models.Graph, error) {
	m.record("Generate")
	return m.generate(ctx, transcript)
}

// mockGalleryStore records calls and returns configured responses.
type mockGalleryStore struct {
	calls

	listGallery    func(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error)
	getGallery     func(ctx context.Context, id string) (*models.GalleryEntry, error)
	upsertGallery  func(ctx context.Context, e *models.GalleryEntry) (*models.GalleryEntry, error)
	saveGraph      func(ctx context.Context, e *models.GalleryEntry) error
	setGalleryTags func(ctx context.Context, id string, tags []string) (*models.GalleryEntry, error)
	deleteGallery  func(ctx context.Context, id string) error
	importGallery  func(ctx context.Context, entries []models.GalleryEntry) (int, error)
}

func (m *mockGalleryStore) ListGallery(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error) {
	m.record("ListGallery")
	return m.listGallery(ctx, q)
}

func (m *mockGalleryStore) GetGallery(ctx context.Context, id string) (*models.GalleryEntry, error) {
	m.record("GetGallery")
	if m.getGallery == nil {
		return nil, models.ErrGalleryNotFound
	}

	return m.getGallery(ctx, id)
}

func (m *mockGalleryStore) UpsertGallery(ctx context.Context, e *models.GalleryEntry) (*models.GalleryEntry, error) {
	m.record("UpsertGallery")
	if m.upsertGallery == nil {
		return e, nil
	}

	return m.upsertGallery(ctx, e)
}

func (m *mockGalleryStore) SaveGalleryGraph(ctx context.Context, e *models.GalleryEntry) error {
	m.record("SaveGalleryGraph")
	if m.saveGraph == nil {
		return nil
	}

	return m.saveGraph(ctx, e)
}

func (m *mockGalleryStore) SetGalleryTags(ctx context.Context, id string, tags []string) (*models.GalleryEntry, error) {
	m.record("SetGalleryTags")
	return m.setGalleryTags(ctx, id, tags)
}

func (m *mockGalleryStore) DeleteGallery(ctx context.Context, id string) error {
	m.record("DeleteGallery")
	return m.deleteGallery(ctx, id)
}

func (m *mockGalleryStore) ImportGallery(ctx context.Context, entries []models.GalleryEntry) (int, error) {
	m.record("ImportGallery")
	return m.importGallery(ctx, entries)
}

func (m *mockGalleryStore) CountGallery(context.Context) (int, error) {
	m.record("CountGallery")
	return 0, nil
}

// mockQuizStore records calls and returns configured responses.
type mockQuizStore struct {
	calls

	recordAttempt func(ctx context.Context, graphID, nodeID, label string, correct bool) (models.QuizStat, error)
}

func (m *mockQuizStore) RecordAttempt(ctx context.Context, graphID, nodeID, label string, correct bool) (models.QuizStat, error) {
	m.record("RecordAttempt")
	return m.recordAttempt(ctx, graphID, nodeID, label, correct)
}

func (m *mockQuizStore) GraphStats(context.Context, string) (map[string]models.QuizStat, error) {
	m.record("GraphStats")
	return map[string]models.QuizStat{}, nil
}
