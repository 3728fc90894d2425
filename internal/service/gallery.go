package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/domain"
	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

// Compile-time check: *GalleryService must satisfy domain.GalleryService.
var _ domain.GalleryService = (*GalleryService)(nil)

// maxImportEntries bounds one gallery import.
const maxImportEntries = 5000

// GalleryService manages saved graphs.
type GalleryService struct {
	store domain.GalleryStore
	log   *logrus.Logger
}

// NewGalleryService creates a GalleryService.
func NewGalleryService(store domain.GalleryStore, log *logrus.Logger) *GalleryService {
	return &GalleryService{store: store, log: log}
}

// List returns gallery entries (pass-through).
func (s *GalleryService) List(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error) {
	return s.store.ListGallery(ctx, q)
}

// Get returns one gallery entry (pass-through).
func (s *GalleryService) Get(ctx context.Context, id string) (*models.GalleryEntry, error) {
	return s.store.GetGallery(ctx, id)
}

// Save validates and upserts an entry. Without an id, generated graphs are
// keyed by their transcript hash and anything else gets a fresh nanoid. The
// id is written into the graph so viewers can attribute quiz attempts.
func (s *GalleryService) Save(ctx context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := graph.Validate(req.Graph); err != nil {
		return nil, err
	}

	id, err := entryID(req.ID, req.Graph)
	if err != nil {
		return nil, err
	}

	g, err := req.Graph.WithExtra(models.ExtraID, id)
	if err != nil {
		return nil, err
	}

	e, err := s.store.UpsertGallery(ctx, &models.GalleryEntry{
		ID:    id,
		Title: req.Title,
		Tags:  req.Tags,
		Graph: g,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"action": "gallery.save", "id": id}).Debug("gallery entry saved")
	s.refreshCount(ctx)

	return e, nil
}

// SaveSnapshot stores a mutated graph under its own id. Only the graph is
// written for an existing entry, so concurrent renames and tag edits stand.
func (s *GalleryService) SaveSnapshot(ctx context.Context, g *models.Graph) error {
	id := g.ID()
	if id == "" {
		return models.ErrMissingID
	}

	return s.store.SaveGalleryGraph(ctx, &models.GalleryEntry{ID: id, Title: g.Title(), Graph: g})
}

// SetTags replaces the tags of an entry.
func (s *GalleryService) SetTags(ctx context.Context, id string, req models.SetTagsRequest) (*models.GalleryEntry, error) {
	tags, err := req.Resolve()
	if err != nil {
		return nil, err
	}

	return s.store.SetGalleryTags(ctx, id, tags)
}

// Delete removes an entry.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteGallery(ctx, id); err != nil {
		return err
	}

	s.refreshCount(ctx)

	return nil
}

// browserEntry is one element of a galleryMaps export from the web client.
type browserEntry struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt json.Number   `json:"createdAt"`
	Tags      []string      `json:"tags"`
	Graph     *models.Graph `json:"graph"`
}

// Import loads a galleryMaps JSON array exported from browser storage.
// Graphs without a transcript get a single space, titles default to the
// first node label, and entries without a graph are skipped.
func (s *GalleryService) Import(ctx context.Context, data []byte) (int, error) {
	var raw []browserEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("%w: gallery import must be a JSON array: %w", models.ErrMalformedGraph, err)
	}

	if len(raw) > maxImportEntries {
		return 0, models.ErrFieldTooLong("gallery import", maxImportEntries)
	}

	entries := make([]models.GalleryEntry, 0, len(raw))

	for i := range raw {
		e, ok, err := s.convertImport(&raw[i])
		if err != nil {
			return 0, err
		}

		if ok {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return 0, nil
	}

	n, err := s.store.ImportGallery(ctx, entries)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"action":   "gallery.import",
		"imported": n,
		"skipped":  len(raw) - len(entries),
	}).Info("gallery imported")
	s.refreshCount(ctx)

	return n, nil
}

func (s *GalleryService) convertImport(b *browserEntry) (models.GalleryEntry, bool, error) {
	if b.Graph == nil || graph.Validate(b.Graph) != nil {
		s.log.WithField("id", b.ID).Warn("skipping gallery import entry without a valid graph")
		return models.GalleryEntry{}, false, nil
	}

	g := b.Graph
	if g.Transcript() == "" {
		var err error
		if g, err = g.WithExtra(models.ExtraTranscript, " "); err != nil {
			return models.GalleryEntry{}, false, err
		}
	}

	id, err := entryID(b.ID, g)
	if err != nil {
		return models.GalleryEntry{}, false, err
	}

	if g, err = g.WithExtra(models.ExtraID, id); err != nil {
		return models.GalleryEntry{}, false, err
	}

	title := b.Title
	if len(g.Nodes) > 0 && g.Nodes[0].Label != "" {
		title = g.Nodes[0].Label
	}
	if title == "" {
		title = "Untitled Map"
	}

	tags, err := models.NormalizeTags(b.Tags)
	if err != nil {
		return models.GalleryEntry{}, false, err
	}

	return models.GalleryEntry{
		ID:        id,
		Title:     title,
		Tags:      tags,
		CreatedAt: importTime(b.CreatedAt),
		Graph:     g,
	}, true, nil
}

// importTime accepts epoch milliseconds; anything else means now.
func importTime(n json.Number) time.Time {
	if ms, err := n.Int64(); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}

	if f, err := n.Float64(); err == nil && f > 0 {
		return time.UnixMilli(int64(f)).UTC()
	}

	return time.Now().UTC()
}

// entryID picks the gallery id for g.
func entryID(requested string, g *models.Graph) (string, error) {
	if requested != "" {
		return requested, nil
	}

	if id := g.ID(); id != "" {
		return id, nil
	}

	if t := g.Transcript(); strings.TrimSpace(t) != "" {
		return models.TranscriptHash(t), nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generating gallery id: %w", err)
	}

	return id, nil
}

func (s *GalleryService) refreshCount(ctx context.Context) {
	n, err := s.store.CountGallery(ctx)
	if err != nil {
		s.log.WithError(err).Debug("counting gallery entries")
		return
	}

	metrics.GalleryCount.Set(float64(n))
}
