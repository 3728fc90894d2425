package generate

import (
	"context"

	"github.com/persistorai/mindmap/internal/models"
)

// StubGenerator returns a fixed two-node graph. It is used in development
// and tests where no model backend is configured.
type StubGenerator struct{}

// Name implements Generator.
func (StubGenerator) Name() string { return "stub" }

// Generate implements Generator.
func (StubGenerator) Generate(ctx context.Context, _ string) (*models.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.Graph{
		Nodes: []*models.Node{
			{
				ID:      models.NumberID(1),
				Label:   "Python",
				Weight:  5,
				Summary: "A general-purpose programming language.",
				Quiz: []models.Question{{
					Question:    "Which web framework is written in Python?",
					Options:     []string{"Rails", "Django", "Laravel"},
					AnswerIndex: 1,
				}},
			},
			{ID: models.NumberID(2), Label: "Django", Weight: 3},
		},
		Links: []*models.Link{
			{Source: models.NumberID(1), Target: models.NumberID(2), Weight: 0.8, Relation: "is a Python framework"},
		},
	}, nil
}
