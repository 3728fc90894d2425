package store

import (
	"encoding/json"
	"fmt"

	"github.com/persistorai/mindmap/internal/models"
)

// galleryColumns lists the columns selected for gallery queries.
const galleryColumns = `id, title, tags, graph, created_at, updated_at`

// scanGalleryEntry scans a single row into a models.GalleryEntry.
func scanGalleryEntry(scan func(dest ...any) error) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	var raw []byte

	if err := scan(&e.ID, &e.Title, &e.Tags, &raw, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	if e.Tags == nil {
		e.Tags = []string{}
	}

	var g models.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("unmarshalling gallery graph: %w", err)
	}
	e.Graph = &g

	return &e, nil
}
