package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/mindmap/internal/models"
)

// GalleryStore persists saved graphs.
type GalleryStore struct {
	Base
}

// NewGalleryStore creates a GalleryStore.
func NewGalleryStore(base Base) *GalleryStore {
	return &GalleryStore{Base: base}
}

// ListGallery returns entries newest first, optionally filtered by a title
// substring and an exact tag.
func (s *GalleryStore) ListGallery(ctx context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error) {
	limit, offset := clampPage(q.Limit, q.Offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := " WHERE true"
	args := make([]any, 0, 4)
	argIdx := 1

	if q.Search != "" {
		where += fmt.Sprintf(" AND title ILIKE $%d", argIdx)
		args = append(args, containsPattern(q.Search))
		argIdx++
	}

	if q.Tag != "" {
		where += fmt.Sprintf(" AND $%d = ANY(tags)", argIdx)
		args = append(args, q.Tag)
		argIdx++
	}

	query := "SELECT " + galleryColumns + " FROM gallery" + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying gallery: %w", err)
	}
	defer rows.Close()

	entries := make([]models.GalleryEntry, 0, limit+1)

	for rows.Next() {
		e, err := scanGalleryEntry(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning gallery row: %w", err)
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating gallery rows: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// GetGallery returns one entry or models.ErrGalleryNotFound.
func (s *GalleryStore) GetGallery(ctx context.Context, id string) (*models.GalleryEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+galleryColumns+" FROM gallery WHERE id = $1", id)

	e, err := scanGalleryEntry(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGalleryNotFound
		}

		return nil, fmt.Errorf("getting gallery entry: %w", err)
	}

	return e, nil
}

const upsertGallerySQL = `INSERT INTO gallery (id, title, tags, graph)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title, tags = EXCLUDED.tags, graph = EXCLUDED.graph, updated_at = now()
	RETURNING ` + galleryColumns

// UpsertGallery inserts or replaces an entry. created_at survives updates.
func (s *GalleryStore) UpsertGallery(ctx context.Context, e *models.GalleryEntry) (*models.GalleryEntry, error) {
	data, err := json.Marshal(e.Graph)
	if err != nil {
		return nil, fmt.Errorf("marshalling gallery graph: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, upsertGallerySQL, e.ID, e.Title, tagsOrEmpty(e.Tags), data)

	out, err := scanGalleryEntry(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("upserting gallery entry: %w", err)
	}

	return out, nil
}

const saveGalleryGraphSQL = `INSERT INTO gallery (id, title, tags, graph)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET graph = EXCLUDED.graph, updated_at = now()`

// SaveGalleryGraph writes e.Graph in one statement. Title and tags are only
// used when the entry does not exist yet; a stored entry keeps its own.
func (s *GalleryStore) SaveGalleryGraph(ctx context.Context, e *models.GalleryEntry) error {
	data, err := json.Marshal(e.Graph)
	if err != nil {
		return fmt.Errorf("marshalling gallery graph: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, saveGalleryGraphSQL, e.ID, e.Title, tagsOrEmpty(e.Tags), data); err != nil {
		return fmt.Errorf("saving gallery graph: %w", err)
	}

	return nil
}

// SetGalleryTags replaces the tags of an entry.
func (s *GalleryStore) SetGalleryTags(ctx context.Context, id string, tags []string) (*models.GalleryEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		`UPDATE gallery SET tags = $2, updated_at = now() WHERE id = $1 RETURNING `+galleryColumns,
		id, tagsOrEmpty(tags),
	)

	e, err := scanGalleryEntry(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGalleryNotFound
		}

		return nil, fmt.Errorf("setting gallery tags: %w", err)
	}

	return e, nil
}

// DeleteGallery removes an entry.
func (s *GalleryStore) DeleteGallery(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM gallery WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting gallery entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrGalleryNotFound
	}

	return nil
}

// ImportGallery upserts entries in one transaction. Entries that already
// exist keep their stored created_at.
func (s *GalleryStore) ImportGallery(ctx context.Context, entries []models.GalleryEntry) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("importing gallery: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	batch := &pgx.Batch{}

	for i := range entries {
		data, err := json.Marshal(entries[i].Graph)
		if err != nil {
			return 0, fmt.Errorf("marshalling gallery graph %s: %w", entries[i].ID, err)
		}

		batch.Queue(
			`INSERT INTO gallery (id, title, tags, graph, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET title = EXCLUDED.title, tags = EXCLUDED.tags, graph = EXCLUDED.graph, updated_at = now()`,
			entries[i].ID, entries[i].Title, tagsOrEmpty(entries[i].Tags), data, entries[i].CreatedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("executing gallery import batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing gallery import: %w", err)
	}

	return len(entries), nil
}

// CountGallery returns the number of saved entries.
func (s *GalleryStore) CountGallery(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM gallery`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting gallery: %w", err)
	}

	return n, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}
