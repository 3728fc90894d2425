package interaction

import (
	"sync"

	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
)

// mockScene records calls and returns configured hits.
type mockScene struct {
	mu    sync.Mutex
	calls []string

	nodeAt    func(p layout.Point) (*models.Node, bool)
	edgeAt    func(p layout.Point) (*models.Link, bool)
	positions map[string]models.Position
	dragging  string
}

func (m *mockScene) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockScene) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockScene) NodeAt(p layout.Point) (*models.Node, bool) {
	m.record("NodeAt")
	if m.nodeAt == nil {
		return nil, false
	}
	return m.nodeAt(p)
}

func (m *mockScene) EdgeAt(p layout.Point) (*models.Link, bool) {
	m.record("EdgeAt")
	if m.edgeAt == nil {
		return nil, false
	}
	return m.edgeAt(p)
}

func (m *mockScene) Position(id models.NodeID) (models.Position, bool) {
	m.record("Position")
	pos, ok := m.positions[id.Key()]
	return pos, ok
}

func (m *mockScene) BeginDrag(id models.NodeID) bool {
	m.record("BeginDrag")
	m.dragging = id.Key()
	return true
}

func (m *mockScene) DragTo(p layout.Point) {
	m.record("DragTo")
	if m.dragging != "" {
		m.positions[m.dragging] = models.Position{X: p.X, Y: p.Y}
	}
}

func (m *mockScene) EndDrag() (models.Position, bool) {
	m.record("EndDrag")
	key := m.dragging
	m.dragging = ""
	pos, ok := m.positions[key]
	return pos, ok
}
