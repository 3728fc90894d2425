package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/mindmap/internal/models"
)

// GraphCacheStore persists generated graphs keyed by transcript hash.
type GraphCacheStore struct {
	Base
}

// NewGraphCacheStore creates a GraphCacheStore.
func NewGraphCacheStore(base Base) *GraphCacheStore {
	return &GraphCacheStore{Base: base}
}

// GetGraph returns the cached graph for hash, or models.ErrCacheMiss.
func (s *GraphCacheStore) GetGraph(ctx context.Context, hash string) (*models.Graph, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var raw []byte

	err := s.Pool.QueryRow(ctx, `SELECT graph FROM graph_cache WHERE hash = $1`, hash).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCacheMiss
		}

		return nil, fmt.Errorf("getting cached graph: %w", err)
	}

	var g models.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("unmarshalling cached graph: %w", err)
	}

	return &g, nil
}

// PutGraph inserts or replaces the cached graph for hash.
func (s *GraphCacheStore) PutGraph(ctx context.Context, hash, transcript string, g *models.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshalling graph: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO graph_cache (hash, transcript, graph)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (hash) DO UPDATE
		 SET graph = EXCLUDED.graph, updated_at = now()`,
		hash, transcript, data,
	)
	if err != nil {
		return fmt.Errorf("storing cached graph: %w", err)
	}

	return nil
}

// CountGraphs returns the number of cached graphs.
func (s *GraphCacheStore) CountGraphs(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM graph_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cached graphs: %w", err)
	}

	return n, nil
}
