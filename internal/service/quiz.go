package service

import (
	"context"

	"github.com/persistorai/mindmap/internal/domain"
	"github.com/persistorai/mindmap/internal/models"
)

// Compile-time check: *QuizService must satisfy domain.QuizService.
var _ domain.QuizService = (*QuizService)(nil)

// QuizService records and reports quiz attempts.
type QuizService struct {
	store domain.QuizStatsStore
}

// NewQuizService creates a QuizService.
func NewQuizService(store domain.QuizStatsStore) *QuizService {
	return &QuizService{store: store}
}

// RecordAttempt counts one submitted answer.
func (s *QuizService) RecordAttempt(
	ctx context.Context, graphID, nodeID string, req models.RecordAttemptRequest,
) (models.QuizStat, error) {
	if graphID == "" || nodeID == "" {
		return models.QuizStat{}, models.ErrMissingID
	}

	return s.store.RecordAttempt(ctx, graphID, nodeID, req.Label, req.Correct)
}

// Stats returns the per-node statistics of a graph.
func (s *QuizService) Stats(ctx context.Context, graphID string) (map[string]models.QuizStat, error) {
	if graphID == "" {
		return nil, models.ErrMissingID
	}

	return s.store.GraphStats(ctx, graphID)
}
