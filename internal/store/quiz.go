package store

import (
	"context"
	"fmt"

	"github.com/persistorai/mindmap/internal/models"
)

// QuizStore persists per-node quiz attempt counters.
type QuizStore struct {
	Base
}

// NewQuizStore creates a QuizStore.
func NewQuizStore(base Base) *QuizStore {
	return &QuizStore{Base: base}
}

// RecordAttempt counts one answer for a node and returns the new totals.
func (s *QuizStore) RecordAttempt(ctx context.Context, graphID, nodeID, label string, correct bool) (models.QuizStat, error) {
	inc := 0
	if correct {
		inc = 1
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var st models.QuizStat

	err := s.Pool.QueryRow(ctx,
		`INSERT INTO quiz_stats (graph_id, node_id, label, attempts, correct)
		 VALUES ($1, $2, $3, 1, $4)
		 ON CONFLICT (graph_id, node_id) DO UPDATE
		 SET attempts = quiz_stats.attempts + 1,
		     correct = quiz_stats.correct + EXCLUDED.correct,
		     label = EXCLUDED.label,
		     updated_at = now()
		 RETURNING attempts, correct, label`,
		graphID, nodeID, label, inc,
	).Scan(&st.Attempts, &st.Correct, &st.Label)
	if err != nil {
		return models.QuizStat{}, fmt.Errorf("recording quiz attempt: %w", err)
	}

	return st, nil
}

// GraphStats returns the statistics of every node of a graph.
func (s *QuizStore) GraphStats(ctx context.Context, graphID string) (map[string]models.QuizStat, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT node_id, attempts, correct, label FROM quiz_stats WHERE graph_id = $1`, graphID)
	if err != nil {
		return nil, fmt.Errorf("querying quiz stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.QuizStat)

	for rows.Next() {
		var nodeID string
		var st models.QuizStat

		if err := rows.Scan(&nodeID, &st.Attempts, &st.Correct, &st.Label); err != nil {
			return nil, fmt.Errorf("scanning quiz stat: %w", err)
		}

		out[nodeID] = st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quiz stats: %w", err)
	}

	return out, nil
}
