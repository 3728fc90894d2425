package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/persistorai/mindmap/internal/models"
)

// GalleryService handles saved graphs.
type GalleryService struct {
	c *Client
}

// List returns gallery entries, newest first, and whether more pages exist.
func (s *GalleryService) List(ctx context.Context, q *GalleryQuery) ([]models.GalleryEntry, bool, error) {
	params := url.Values{}
	if q != nil {
		if q.Search != "" {
			params.Set("search", q.Search)
		}
		if q.Tag != "" {
			params.Set("tag", q.Tag)
		}
		if q.Limit > 0 {
			params.Set("limit", strconv.Itoa(q.Limit))
		}
		if q.Offset > 0 {
			params.Set("offset", strconv.Itoa(q.Offset))
		}
	}
	var resp struct {
		Entries []models.GalleryEntry `json:"entries"`
		HasMore bool                  `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/gallery", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Entries, resp.HasMore, nil
}

// Get returns one entry.
func (s *GalleryService) Get(ctx context.Context, id string) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	if err := s.c.get(ctx, "/api/v1/gallery/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create saves a new entry. The server assigns an id when req.ID is empty.
func (s *GalleryService) Create(ctx context.Context, req *models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	if err := s.c.post(ctx, "/api/v1/gallery", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the entry stored under id.
func (s *GalleryService) Update(ctx context.Context, id string, req *models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	if err := s.c.put(ctx, "/api/v1/gallery/"+url.PathEscape(id), req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SetTags replaces the tags of an entry. An empty list clears them.
func (s *GalleryService) SetTags(ctx context.Context, id string, tags []string) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	if err := s.c.put(ctx, "/api/v1/gallery/"+url.PathEscape(id)+"/tags", models.SetTagsRequest{Tags: tags}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Rename changes one node label or edge relation of a saved graph.
func (s *GalleryService) Rename(ctx context.Context, id string, req *models.RenameRequest) (*models.GalleryEntry, error) {
	var e models.GalleryEntry
	if err := s.c.post(ctx, "/api/v1/gallery/"+url.PathEscape(id)+"/rename", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an entry.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/gallery/"+url.PathEscape(id))
}
