// Package generate turns transcripts into concept graphs.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/models"
)

// ErrUnavailable is returned while the generator backend is failing.
var ErrUnavailable = errors.New("graph generator unavailable")

// Generator produces a concept graph from a transcript.
type Generator interface {
	Name() string
	Generate(ctx context.Context, transcript string) (*models.Graph, error)
}

// Sanitize drops links whose endpoints do not exist and later duplicates of
// a node id, then validates the result. Model output is never trusted to be
// well formed.
func Sanitize(g *models.Graph) (*models.Graph, error) {
	if g.Nodes == nil {
		g.Nodes = []*models.Node{}
	}
	if g.Links == nil {
		g.Links = []*models.Link{}
	}

	seen := make(map[string]bool, len(g.Nodes))
	nodes := make([]*models.Node, 0, len(g.Nodes))

	for _, n := range g.Nodes {
		if n == nil || n.ID.IsZero() || seen[n.ID.Key()] {
			continue
		}

		seen[n.ID.Key()] = true
		n.Quiz = validQuestions(n.Quiz)
		nodes = append(nodes, n)
	}

	links := make([]*models.Link, 0, len(g.Links))

	for _, l := range g.Links {
		if l == nil || !seen[l.Source.Key()] || !seen[l.Target.Key()] {
			continue
		}

		links = append(links, l)
	}

	out := &models.Graph{Nodes: nodes, Links: links, Extra: g.Extra}
	if err := graph.Validate(out); err != nil {
		return nil, fmt.Errorf("generated graph: %w", err)
	}

	return out, nil
}

func validQuestions(qs []models.Question) []models.Question {
	out := qs[:0]

	for i := range qs {
		if qs[i].Validate() == nil {
			out = append(out, qs[i])
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
