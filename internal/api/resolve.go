package api

import (
	"context"
	"errors"

	"github.com/persistorai/mindmap/internal/models"
)

// resolver finds a graph by transcript hash or gallery id.
type resolver struct {
	graphs  GraphService
	gallery GalleryService
}

// resolve tries the graph cache for hash-shaped ids, then the gallery.
func (r resolver) resolve(ctx context.Context, id string) (*models.Graph, error) {
	if r.graphs != nil && models.ValidateHash(id) == nil {
		g, err := r.graphs.Cached(ctx, id)
		if err == nil {
			return g, nil
		}

		if !errors.Is(err, models.ErrCacheMiss) {
			return nil, err
		}
	}

	if r.gallery == nil {
		return nil, models.ErrGraphNotFound
	}

	e, err := r.gallery.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrGalleryNotFound) {
			return nil, models.ErrGraphNotFound
		}

		return nil, err
	}

	return e.Graph, nil
}
