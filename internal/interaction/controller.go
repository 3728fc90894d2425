// Package interaction turns pointer and keyboard gestures into graph
// mutations or into transient editing state.
package interaction

import (
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
)

// Scene is the hit-testing and drag surface of the layout engine.
type Scene interface {
	NodeAt(p layout.Point) (*models.Node, bool)
	EdgeAt(p layout.Point) (*models.Link, bool)
	Position(id models.NodeID) (models.Position, bool)
	BeginDrag(id models.NodeID) bool
	DragTo(p layout.Point)
	EndDrag() (models.Position, bool)
}

// Mutator is the graph model the controller writes through.
type Mutator interface {
	Graph() *models.Graph
	Rename(kind graph.TargetKind, target graph.Target, label string) bool
	Pin(id models.NodeID, pos models.Position) bool
	Unpin(id models.NodeID) bool
}

// Compile-time interface checks.
var (
	_ Scene   = (*layout.Engine)(nil)
	_ Mutator = (*graph.Model)(nil)
)

// Modifiers is a bit set of held keys.
type Modifiers uint8

// Modifier keys.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// pinToggle reports whether the modifiers request a pin toggle.
func (m Modifiers) pinToggle() bool { return m&(ModCtrl|ModMeta) != 0 }

// State is the pointer gesture state.
type State int

// Gesture states.
const (
	StateIdle State = iota
	StateDragging
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}

	return "idle"
}

// Edit is the pending inline edit.
type Edit struct {
	Kind    graph.TargetKind
	Target  graph.Target
	Current string
}

// ActivateFunc receives the full node record on double-click.
type ActivateFunc func(*models.Node)

// Controller is the gesture state machine. It is not safe for concurrent use.
type Controller struct {
	scene      Scene
	model      Mutator
	onActivate ActivateFunc
	log        *logrus.Logger

	state    State
	dragNode models.NodeID
	moved    bool
	selected models.NodeID
	edit     *Edit
}

// NewController wires a controller to its scene and model.
func NewController(scene Scene, model Mutator, onActivate ActivateFunc, log *logrus.Logger) *Controller {
	return &Controller{scene: scene, model: model, onActivate: onActivate, log: log}
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Selected returns the last plainly clicked node.
func (c *Controller) Selected() (models.NodeID, bool) {
	return c.selected, !c.selected.IsZero()
}

// Editing returns the pending edit, if any.
func (c *Controller) Editing() (Edit, bool) {
	if c.edit == nil {
		return Edit{}, false
	}

	return *c.edit, true
}

// Press starts dragging the node under p.
func (c *Controller) Press(p layout.Point) bool {
	if c.state != StateIdle {
		return false
	}

	n, ok := c.scene.NodeAt(p)
	if !ok || !c.scene.BeginDrag(n.ID) {
		return false
	}

	c.state = StateDragging
	c.dragNode = n.ID
	c.moved = false

	return true
}

// Move makes the dragged node follow the pointer.
func (c *Controller) Move(p layout.Point) {
	if c.state != StateDragging {
		return
	}

	c.scene.DragTo(p)
	c.moved = true
}

// Release ends a drag. A pinned node that was moved is re-pinned at the drop
// point; a free node rejoins the simulation.
func (c *Controller) Release(p layout.Point) {
	if c.state != StateDragging {
		return
	}

	if c.moved {
		c.scene.DragTo(p)
	}

	pos, ok := c.scene.EndDrag()
	id := c.dragNode

	c.state = StateIdle
	c.dragNode = models.NodeID{}

	if !ok || !c.moved {
		return
	}

	if n, _ := c.model.Graph().NodeByID(id); n != nil && n.Pinned() {
		c.model.Pin(id, pos)
		c.log.WithFields(logrus.Fields{"action": "interaction.drop_pinned", "node_id": id.Key()}).Debug("pinned node moved")
	}
}

// Click handles a single click. A modified click on a node toggles its pin,
// a plain click on a node selects it and a plain click on an edge starts
// editing its relation.
func (c *Controller) Click(p layout.Point, mods Modifiers) {
	if n, ok := c.scene.NodeAt(p); ok {
		if mods.pinToggle() {
			c.togglePin(n)

			return
		}

		c.selected = n.ID

		return
	}

	if mods.pinToggle() {
		return
	}

	if l, ok := c.scene.EdgeAt(p); ok {
		c.open(&Edit{
			Kind:    graph.KindEdge,
			Target:  graph.EdgeTarget(l.Source, l.Target),
			Current: l.Relation,
		})

		return
	}

	c.selected = models.NodeID{}
}

func (c *Controller) togglePin(n *models.Node) {
	current, _ := c.model.Graph().NodeByID(n.ID)
	if current == nil {
		return
	}

	if current.Pinned() {
		c.model.Unpin(n.ID)
		c.log.WithFields(logrus.Fields{"action": "interaction.unpin", "node_id": n.ID.Key()}).Debug("node unpinned")

		return
	}

	pos, ok := c.scene.Position(n.ID)
	if !ok {
		return
	}

	c.model.Pin(n.ID, pos)
	c.log.WithFields(logrus.Fields{"action": "interaction.pin", "node_id": n.ID.Key()}).Debug("node pinned")
}

// DoubleClick activates the node under p. Nodes take precedence over edges.
func (c *Controller) DoubleClick(p layout.Point) bool {
	n, ok := c.scene.NodeAt(p)
	if !ok {
		return false
	}

	if current, _ := c.model.Graph().NodeByID(n.ID); current != nil {
		n = current
	}

	if c.onActivate != nil {
		c.onActivate(n)
	}

	return true
}

// BeginNodeEdit opens label editing for id, or for the selected node when id
// is zero.
func (c *Controller) BeginNodeEdit(id models.NodeID) bool {
	if id.IsZero() {
		id = c.selected
	}

	n, _ := c.model.Graph().NodeByID(id)
	if n == nil {
		return false
	}

	c.open(&Edit{Kind: graph.KindNode, Target: graph.NodeTarget(n.ID), Current: n.Label})

	return true
}

// BeginEdgeEdit opens relation editing for the first link source->target.
func (c *Controller) BeginEdgeEdit(source, target models.NodeID) bool {
	key := models.EdgeKey{Source: source.Key(), Target: target.Key()}

	l, _ := c.model.Graph().LinkByKey(key)
	if l == nil {
		return false
	}

	c.open(&Edit{Kind: graph.KindEdge, Target: graph.EdgeTarget(source, target), Current: l.Relation})

	return true
}

// open replaces any pending edit without committing it.
func (c *Controller) open(e *Edit) {
	if c.edit != nil {
		c.log.WithField("action", "interaction.edit_discard").Debug("pending edit replaced")
	}

	c.edit = e
}

// Commit applies label to the pending edit target. It reports whether the
// graph changed.
func (c *Controller) Commit(label string) bool {
	if c.edit == nil {
		return false
	}

	e := c.edit
	c.edit = nil

	return c.model.Rename(e.Kind, e.Target, label)
}

// Cancel drops the pending edit.
func (c *Controller) Cancel() {
	c.edit = nil
}

// Reset abandons any gesture and edit, e.g. when the graph is replaced.
func (c *Controller) Reset() {
	if c.state == StateDragging {
		c.scene.EndDrag()
	}

	c.state = StateIdle
	c.dragNode = models.NodeID{}
	c.moved = false
	c.selected = models.NodeID{}
	c.edit = nil
}
