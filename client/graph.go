package client

import (
	"context"
	"net/url"

	"github.com/persistorai/mindmap/internal/models"
)

// GraphService handles graph generation, the transcript cache and views.
type GraphService struct {
	c *Client
}

// Extract returns the graph for a transcript, generating it on a cache miss.
func (s *GraphService) Extract(ctx context.Context, transcript string) (*models.Graph, error) {
	var g models.Graph
	if err := s.c.post(ctx, "/api/v1/extract-graph", models.ExtractRequest{Transcript: transcript}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Store caches g under the transcript hash. A nil g behaves like Extract.
func (s *GraphService) Store(ctx context.Context, transcript string, g *models.Graph) (*models.Graph, error) {
	var out models.Graph
	req := models.StoreGraphRequest{Transcript: transcript, Graph: g}
	if err := s.c.post(ctx, "/api/v1/store-graph", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cached returns the graph cached under hash, or a not found *APIError.
func (s *GraphService) Cached(ctx context.Context, hash string) (*models.Graph, error) {
	var g models.Graph
	if err := s.c.get(ctx, "/api/v1/get-cached-graph/"+url.PathEscape(hash), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// View returns the stabilized layout of a cached graph or gallery entry.
func (s *GraphService) View(ctx context.Context, id string, opts ViewOptions) (*Frame, error) {
	params := url.Values{}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	if opts.Mode != "" {
		params.Set("mode", opts.Mode)
	}
	var f Frame
	if err := s.c.get(ctx, "/api/v1/graphs/"+url.PathEscape(id)+"/view", params, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Filter returns the nodes of g matching term plus their neighbors.
func (s *GraphService) Filter(ctx context.Context, g *models.Graph, term string) (*FilterResult, error) {
	body := struct {
		Graph *models.Graph `json:"graph"`
		Term  string        `json:"term"`
	}{Graph: g, Term: term}

	var resp FilterResult
	if err := s.c.post(ctx, "/api/v1/graphs/filter", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
