// Package service holds the business logic between the API handlers, the
// live viewer sessions and the stores.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/persistorai/mindmap/internal/domain"
	"github.com/persistorai/mindmap/internal/generate"
	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

// GraphCache is the in-memory tier in front of the graph cache store.
type GraphCache interface {
	Graph(hash string) (*models.Graph, bool)
	SetGraph(hash string, g *models.Graph)
}

// Compile-time check: *GraphService must satisfy domain.GraphService.
var _ domain.GraphService = (*GraphService)(nil)

// GraphService resolves transcripts to graphs through two cache tiers and,
// on a miss, the generator. Concurrent requests for one transcript share a
// single generation.
type GraphService struct {
	memory GraphCache
	store  domain.GraphCacheStore
	gen    generate.Generator
	group  singleflight.Group
	log    *logrus.Logger
}

// NewGraphService creates a GraphService.
func NewGraphService(memory GraphCache, store domain.GraphCacheStore, gen generate.Generator, log *logrus.Logger) *GraphService {
	return &GraphService{memory: memory, store: store, gen: gen, log: log}
}

// Extract returns the graph for transcript, generating it on a cache miss.
// The returned graph carries the transcript.
func (s *GraphService) Extract(ctx context.Context, transcript string) (*models.Graph, error) {
	hash := models.TranscriptHash(transcript)

	if g, err := s.lookup(ctx, hash); err == nil {
		return g, nil
	} else if !errors.Is(err, models.ErrCacheMiss) {
		s.log.WithError(err).WithField("hash", hash).Warn("cache lookup failed, regenerating")
	}

	// The shared call must outlive any one caller giving up.
	v, err, _ := s.group.Do(hash, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), hash, transcript)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Graph), nil //nolint:forcetypeassert // the group only returns graphs.
}

func (s *GraphService) generate(ctx context.Context, hash, transcript string) (*models.Graph, error) {
	log := s.log.WithFields(logrus.Fields{
		"action":    "graph.generate",
		"hash":      hash,
		"generator": s.gen.Name(),
	})

	g, err := s.gen.Generate(ctx, transcript)
	if err != nil {
		log.WithError(err).Error("generation failed")
		metrics.ErrorsTotal.WithLabelValues("generate").Inc()

		return nil, err
	}

	g, err = g.WithExtra(models.ExtraTranscript, transcript)
	if err != nil {
		return nil, err
	}

	s.save(ctx, hash, transcript, g)
	log.WithField("nodes", len(g.Nodes)).Info("graph generated")

	return g, nil
}

// Store caches g under the hash of transcript. A nil graph falls back to
// Extract.
func (s *GraphService) Store(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error) {
	if g == nil {
		return s.Extract(ctx, transcript)
	}

	if err := graph.Validate(g); err != nil {
		return nil, err
	}

	g, err := g.WithExtra(models.ExtraTranscript, transcript)
	if err != nil {
		return nil, err
	}

	hash := models.TranscriptHash(transcript)
	if err := s.store.PutGraph(ctx, hash, transcript, g); err != nil {
		return nil, fmt.Errorf("storing graph: %w", err)
	}

	s.memory.SetGraph(hash, g)

	return g, nil
}

// Cached returns the graph stored under hash without generating.
func (s *GraphService) Cached(ctx context.Context, hash string) (*models.Graph, error) {
	if err := models.ValidateHash(hash); err != nil {
		return nil, err
	}

	return s.lookup(ctx, hash)
}

func (s *GraphService) lookup(ctx context.Context, hash string) (*models.Graph, error) {
	if g, ok := s.memory.Graph(hash); ok {
		return g, nil
	}

	g, err := s.store.GetGraph(ctx, hash)
	if err != nil {
		if errors.Is(err, models.ErrCacheMiss) {
			metrics.CacheLookups.WithLabelValues("postgres", "miss").Inc()
		}

		return nil, err
	}

	metrics.CacheLookups.WithLabelValues("postgres", "hit").Inc()
	s.memory.SetGraph(hash, g)

	return g, nil
}

// save writes both tiers. A failed database write is logged; the caller
// still gets the freshly generated graph.
func (s *GraphService) save(ctx context.Context, hash, transcript string, g *models.Graph) {
	s.memory.SetGraph(hash, g)

	if err := s.store.PutGraph(ctx, hash, transcript, g); err != nil {
		s.log.WithError(err).WithField("hash", hash).Warn("persisting generated graph failed")
	}
}
