package interaction

import (
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

type fixture struct {
	scene     *mockScene
	model     *graph.Model
	ctrl      *Controller
	snapshots []*models.Graph
	activated []*models.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	raw := `{"id":"g1","nodes":[{"id":1,"label":"Python"},{"id":2,"label":"Django"},{"id":3,"label":"Java","fixed":true,"x":1,"y":2}],` +
		`"links":[{"source":1,"target":2,"relation":"web framework"}]}`

	var g models.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	f := &fixture{}
	f.model = graph.NewModel(&g, func(next *models.Graph) { f.snapshots = append(f.snapshots, next) }, testLogger())
	f.scene = &mockScene{positions: map[string]models.Position{
		"1": {X: 10, Y: 10},
		"2": {X: 50, Y: 10},
		"3": {X: 1, Y: 2},
	}}
	f.ctrl = NewController(f.scene, f.model, func(n *models.Node) { f.activated = append(f.activated, n) }, testLogger())

	return f
}

// hitNode makes every point hit the node with key.
func (f *fixture) hitNode(key string) {
	f.scene.nodeAt = func(layout.Point) (*models.Node, bool) {
		n, _ := f.model.Graph().NodeByID(models.StringID(key))
		return n, n != nil
	}
}

func (f *fixture) hitEdge() {
	f.scene.edgeAt = func(layout.Point) (*models.Link, bool) {
		return f.model.Graph().Links[0], true
	}
}

func TestController_ModifiedClickTogglesPin(t *testing.T) {
	f := newFixture(t)
	f.hitNode("1")

	f.ctrl.Click(layout.Point{}, ModCtrl)

	n, _ := f.model.Graph().NodeByID(models.NumberID(1))
	pos, ok := n.PinnedAt()
	if !ok || pos != (models.Position{X: 10, Y: 10}) {
		t.Fatalf("node 1 pinned at %+v (%v), want (10,10)", pos, ok)
	}

	f.ctrl.Click(layout.Point{}, ModMeta)

	n, _ = f.model.Graph().NodeByID(models.NumberID(1))
	if n.Fixed || n.X != nil || n.Y != nil {
		t.Errorf("node 1 still pinned: %+v", n)
	}

	if len(f.snapshots) != 2 {
		t.Errorf("snapshots = %d, want 2", len(f.snapshots))
	}
}

func TestController_PlainClickOnNodeSelects(t *testing.T) {
	f := newFixture(t)
	f.hitNode("2")
	f.hitEdge()

	f.ctrl.Click(layout.Point{}, 0)

	if id, ok := f.ctrl.Selected(); !ok || id.Key() != "2" {
		t.Errorf("selected = %v, %v", id, ok)
	}

	if _, editing := f.ctrl.Editing(); editing {
		t.Error("node click must not open edge editing")
	}

	if len(f.snapshots) != 0 {
		t.Error("plain click must not mutate the graph")
	}
}

func TestController_EdgeEditCommit(t *testing.T) {
	f := newFixture(t)
	f.hitEdge()

	f.ctrl.Click(layout.Point{}, 0)

	e, ok := f.ctrl.Editing()
	if !ok || e.Kind != graph.KindEdge || e.Current != "web framework" {
		t.Fatalf("editing = %+v, %v", e, ok)
	}

	if !f.ctrl.Commit("backend framework") {
		t.Fatal("commit reported no change")
	}

	if got := f.model.Graph().Links[0].Relation; got != "backend framework" {
		t.Errorf("relation = %q", got)
	}

	if _, ok := f.ctrl.Editing(); ok {
		t.Error("edit state must clear after commit")
	}

	if f.ctrl.Commit("again") {
		t.Error("commit without a pending edit must be a no-op")
	}
}

func TestController_NewEditCancelsPending(t *testing.T) {
	f := newFixture(t)
	f.hitEdge()

	f.ctrl.Click(layout.Point{}, 0)

	if !f.ctrl.BeginNodeEdit(models.NumberID(3)) {
		t.Fatal("BeginNodeEdit failed")
	}

	e, _ := f.ctrl.Editing()
	if e.Kind != graph.KindNode || e.Current != "Java" {
		t.Fatalf("editing = %+v, want node 3", e)
	}

	f.ctrl.Commit("Kotlin")

	g := f.model.Graph()
	if g.Links[0].Relation != "web framework" {
		t.Error("abandoned edge edit was persisted")
	}

	if n, _ := g.NodeByID(models.NumberID(3)); n.Label != "Kotlin" {
		t.Errorf("label = %q, want Kotlin", n.Label)
	}

	if len(f.snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(f.snapshots))
	}
}

func TestController_CancelDiscards(t *testing.T) {
	f := newFixture(t)

	f.ctrl.BeginEdgeEdit(models.NumberID(1), models.NumberID(2))
	f.ctrl.Cancel()

	if f.ctrl.Commit("x") || len(f.snapshots) != 0 {
		t.Error("cancelled edit was applied")
	}

	if f.ctrl.BeginEdgeEdit(models.NumberID(2), models.NumberID(1)) {
		t.Error("edit opened for a missing edge")
	}
}

func TestController_DoubleClickNodeWins(t *testing.T) {
	f := newFixture(t)
	f.hitNode("1")
	f.hitEdge()

	if !f.ctrl.DoubleClick(layout.Point{}) {
		t.Fatal("double-click on node not handled")
	}

	if len(f.activated) != 1 || f.activated[0].Label != "Python" {
		t.Errorf("activated = %v", f.activated)
	}

	if f.scene.called("EdgeAt") != 0 {
		t.Error("edge hit test must not run when a node is hit")
	}
}

func TestController_DragFreeNode(t *testing.T) {
	f := newFixture(t)
	f.hitNode("1")

	if !f.ctrl.Press(layout.Point{}) || f.ctrl.State() != StateDragging {
		t.Fatal("press on node must start dragging")
	}

	f.ctrl.Move(layout.Point{X: 30, Y: 40})
	f.ctrl.Release(layout.Point{X: 30, Y: 40})

	if f.ctrl.State() != StateIdle {
		t.Error("release must return to idle")
	}

	if len(f.snapshots) != 0 {
		t.Error("dragging a free node must not write to the graph")
	}
}

func TestController_DragPinnedNodeRepins(t *testing.T) {
	f := newFixture(t)
	f.hitNode("3")

	f.ctrl.Press(layout.Point{})
	f.ctrl.Move(layout.Point{X: 70, Y: 80})
	f.ctrl.Release(layout.Point{X: 70, Y: 80})

	n, _ := f.model.Graph().NodeByID(models.NumberID(3))
	pos, ok := n.PinnedAt()
	if !ok || pos != (models.Position{X: 70, Y: 80}) {
		t.Errorf("pinned node at %+v (%v), want (70,80)", pos, ok)
	}

	if len(f.snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(f.snapshots))
	}
}

func TestController_PressWithoutMoveWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.hitNode("3")

	f.ctrl.Press(layout.Point{})
	f.ctrl.Release(layout.Point{})

	if len(f.snapshots) != 0 {
		t.Error("a press without movement must not re-pin")
	}

	if f.scene.called("EndDrag") != 1 {
		t.Error("release must end the drag")
	}
}
