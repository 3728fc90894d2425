package graph

import (
	"fmt"

	"github.com/persistorai/mindmap/internal/models"
)

// Validate reports structural problems that make a graph unrenderable.
// Every returned error wraps models.ErrMalformedGraph.
func Validate(g *models.Graph) error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", models.ErrMalformedGraph)
	}

	if g.Nodes == nil {
		return fmt.Errorf("%w: missing nodes", models.ErrMalformedGraph)
	}

	if g.Links == nil {
		return fmt.Errorf("%w: missing links", models.ErrMalformedGraph)
	}

	ids := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n == nil {
			return fmt.Errorf("%w: node %d is null", models.ErrMalformedGraph, i)
		}

		if n.ID.IsZero() {
			return fmt.Errorf("%w: node %d has no id", models.ErrMalformedGraph, i)
		}

		if ids[n.ID.Key()] {
			return fmt.Errorf("%w: duplicate node id %q", models.ErrMalformedGraph, n.ID.Key())
		}

		ids[n.ID.Key()] = true
	}

	for i, l := range g.Links {
		if l == nil {
			return fmt.Errorf("%w: link %d is null", models.ErrMalformedGraph, i)
		}

		if !ids[l.Source.Key()] {
			return fmt.Errorf("%w: link %d source %q is not a node", models.ErrMalformedGraph, i, l.Source.Key())
		}

		if !ids[l.Target.Key()] {
			return fmt.Errorf("%w: link %d target %q is not a node", models.ErrMalformedGraph, i, l.Target.Key())
		}
	}

	return nil
}
