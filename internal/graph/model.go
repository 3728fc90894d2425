package graph

import (
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

// SetGraphFunc receives every new snapshot produced by a mutation.
type SetGraphFunc func(*models.Graph)

// Model owns the current graph snapshot. Mutations run the pure operations
// and hand the result to SetGraph; persistence is the callee's concern.
// A Model is not safe for concurrent use; it lives on one event loop.
type Model struct {
	current  *models.Graph
	setGraph SetGraphFunc
	log      *logrus.Logger
}

// NewModel creates a Model around g.
func NewModel(g *models.Graph, setGraph SetGraphFunc, log *logrus.Logger) *Model {
	return &Model{current: g, setGraph: setGraph, log: log}
}

// Graph returns the current snapshot.
func (m *Model) Graph() *models.Graph {
	return m.current
}

// Replace swaps in a new snapshot without notifying SetGraph.
func (m *Model) Replace(g *models.Graph) {
	m.current = g
}

// Rename updates one label or relation. It reports whether anything changed.
func (m *Model) Rename(kind TargetKind, target Target, label string) bool {
	return m.commit("graph.rename", ApplyRename(m.current, kind, target, label))
}

// Pin fixes node id at pos.
func (m *Model) Pin(id models.NodeID, pos models.Position) bool {
	return m.commit("graph.pin", ApplyPin(m.current, id, pos))
}

// Unpin releases node id.
func (m *Model) Unpin(id models.NodeID) bool {
	return m.commit("graph.unpin", ApplyUnpin(m.current, id))
}

func (m *Model) commit(action string, next *models.Graph) bool {
	if next == m.current {
		m.log.WithField("action", action).Debug("graph mutation was a no-op")

		return false
	}

	m.current = next
	m.log.WithFields(logrus.Fields{"action": action, "graph_id": next.ID()}).Debug("graph mutated")

	if m.setGraph != nil {
		m.setGraph(next)
	}

	return true
}
