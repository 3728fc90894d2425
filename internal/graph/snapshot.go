// Package graph holds the copy-on-write operations on concept graphs and the
// model that owns the current snapshot.
package graph

import (
	"encoding/json"

	"github.com/persistorai/mindmap/internal/models"
)

// TargetKind selects what a rename addresses.
type TargetKind int

const (
	// KindNode renames a node label.
	KindNode TargetKind = iota
	// KindEdge renames a link relation.
	KindEdge
)

// String implements fmt.Stringer.
func (k TargetKind) String() string {
	if k == KindEdge {
		return "edge"
	}

	return "node"
}

// Target addresses a node (Node set) or an edge (Edge set).
type Target struct {
	Node models.NodeID
	Edge models.EdgeKey
}

// NodeTarget addresses a node.
func NodeTarget(id models.NodeID) Target { return Target{Node: id} }

// EdgeTarget addresses the first link from source to target.
func EdgeTarget(source, target models.NodeID) Target {
	return Target{Edge: models.EdgeKey{Source: source.Key(), Target: target.Key()}}
}

// ApplyRename returns a snapshot with one node label or one link relation
// replaced. An unresolved target returns g unchanged.
func ApplyRename(g *models.Graph, kind TargetKind, target Target, label string) *models.Graph {
	if g == nil {
		return g
	}

	switch kind {
	case KindNode:
		n, i := g.NodeByID(target.Node)
		if n == nil || n.Label == label {
			return g
		}

		next := *n
		next.Label = label

		return withNode(g, i, &next)
	case KindEdge:
		l, i := g.LinkByKey(target.Edge)
		if l == nil || l.Relation == label {
			return g
		}

		next := *l
		next.Relation = label

		return withLink(g, i, &next)
	default:
		return g
	}
}

// ApplyPin returns a snapshot where node id is fixed at pos.
func ApplyPin(g *models.Graph, id models.NodeID, pos models.Position) *models.Graph {
	if g == nil {
		return g
	}

	n, i := g.NodeByID(id)
	if n == nil {
		return g
	}

	if at, ok := n.PinnedAt(); ok && at == pos {
		return g
	}

	next := *n
	x, y := pos.X, pos.Y
	next.Fixed = true
	next.X = &x
	next.Y = &y

	return withNode(g, i, &next)
}

// ApplyUnpin returns a snapshot where node id is free and has no stored x, y.
// Every other field of the node is kept.
func ApplyUnpin(g *models.Graph, id models.NodeID) *models.Graph {
	if g == nil {
		return g
	}

	n, i := g.NodeByID(id)
	if n == nil || (!n.Fixed && n.X == nil && n.Y == nil) {
		return g
	}

	next := *n
	next.Fixed = false
	next.X = nil
	next.Y = nil

	return withNode(g, i, &next)
}

func withNode(g *models.Graph, i int, n *models.Node) *models.Graph {
	nodes := make([]*models.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	nodes[i] = n

	return &models.Graph{Nodes: nodes, Links: g.Links, Extra: copyExtra(g.Extra)}
}

func withLink(g *models.Graph, i int, l *models.Link) *models.Graph {
	links := make([]*models.Link, len(g.Links))
	copy(links, g.Links)
	links[i] = l

	return &models.Graph{Nodes: g.Nodes, Links: links, Extra: copyExtra(g.Extra)}
}

func copyExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}

	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = v
	}

	return out
}
