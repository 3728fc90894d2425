package client

import (
	"context"
	"net/url"

	"github.com/persistorai/mindmap/internal/models"
)

// QuizService handles per-node quiz statistics.
type QuizService struct {
	c *Client
}

// Stats returns the statistics of every node of a graph, keyed by node id.
func (s *QuizService) Stats(ctx context.Context, graphID string) (map[string]NodeStat, error) {
	var resp struct {
		GraphID string              `json:"graph_id"`
		Stats   map[string]NodeStat `json:"stats"`
	}
	if err := s.c.get(ctx, "/api/v1/quiz-stats/"+url.PathEscape(graphID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Stats == nil {
		resp.Stats = map[string]NodeStat{}
	}
	return resp.Stats, nil
}

// Record stores one answered question and returns the updated statistics.
func (s *QuizService) Record(ctx context.Context, graphID, nodeID, label string, correct bool) (*NodeStat, error) {
	path := "/api/v1/quiz-stats/" + url.PathEscape(graphID) + "/" + url.PathEscape(nodeID)
	var st NodeStat
	if err := s.c.post(ctx, path, models.RecordAttemptRequest{Label: label, Correct: correct}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
