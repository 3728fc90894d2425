package layout

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/filter"
	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/models"
)

// Mode selects how positions are assigned.
type Mode string

// Layout modes.
const (
	ModeForce        Mode = "force"
	ModeHierarchical Mode = "hierarchical"
)

// ParseMode maps a query value onto a Mode. Unknown values fall back to force.
func ParseMode(s string) Mode {
	if Mode(s) == ModeHierarchical {
		return ModeHierarchical
	}

	return ModeForce
}

// Options configures an Engine.
type Options struct {
	Width                   float64
	Height                  float64
	Mode                    Mode
	Seed                    uint64
	StabilizationIterations int
	Hierarchy               HierarchyOptions
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Mode == "" {
		o.Mode = ModeForce
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.StabilizationIterations <= 0 {
		o.StabilizationIterations = DefaultStabilizationIterations
	}

	return o
}

// NodeFrame is one drawable node.
type NodeFrame struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	WorldX  float64 `json:"world_x"`
	WorldY  float64 `json:"world_y"`
	Radius  float64 `json:"radius"`
	Fixed   bool    `json:"fixed,omitempty"`
	Matched bool    `json:"matched,omitempty"`
}

// EdgeFrame is one drawable directed edge in screen space.
type EdgeFrame struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Label    string  `json:"label,omitempty"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Width    float64 `json:"width"`
	SelfLoop bool    `json:"self_loop,omitempty"`
}

// Frame is the render-ready view model.
type Frame struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Scale      float64     `json:"scale"`
	Stabilized bool        `json:"stabilized"`
	Filtered   bool        `json:"filtered"`
	Term       string      `json:"term,omitempty"`
	Nodes      []NodeFrame `json:"nodes"`
	Edges      []EdgeFrame `json:"edges"`
}

// Engine owns the simulation and viewport for the current view.
type Engine struct {
	opts     Options
	sim      *Simulation
	viewport *Viewport
	view     filter.View
	loaded   bool
	dragging string
	log      *logrus.Logger
}

// NewEngine creates an engine with nothing loaded.
func NewEngine(opts Options, log *logrus.Logger) *Engine {
	opts = opts.withDefaults()

	return &Engine{
		opts:     opts,
		sim:      NewSimulation(opts.Seed),
		viewport: NewViewport(opts.Width, opts.Height),
		log:      log,
	}
}

// Mode returns the configured layout mode.
func (e *Engine) Mode() Mode { return e.opts.Mode }

// Load validates g, lays out its full view and frames it without animation.
func (e *Engine) Load(g *models.Graph) error {
	if err := graph.Validate(g); err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	e.sim = NewSimulation(e.opts.Seed)
	e.loaded = true
	e.dragging = ""
	e.setView(filter.Identity(g))

	if e.opts.Mode == ModeForce {
		steps := e.sim.Stabilize(e.opts.StabilizationIterations)
		e.log.WithFields(logrus.Fields{
			"action": "layout.stabilize",
			"nodes":  len(g.Nodes),
			"steps":  steps,
		}).Debug("layout stabilized")
	}

	e.viewport.Fit(e.sim.Bounds())

	return nil
}

// Loaded reports whether a graph has been loaded.
func (e *Engine) Loaded() bool { return e.loaded }

// SetView replaces the drawn set with v. Nodes that stay keep their position.
func (e *Engine) SetView(v filter.View, now time.Time) {
	if !e.loaded {
		return
	}

	e.setView(v)
	e.viewport.AnimateFit(e.sim.Bounds(), now)
}

// Refresh swaps in an updated view of the same graph without re-framing.
func (e *Engine) Refresh(v filter.View) {
	if !e.loaded {
		return
	}

	e.setView(v)
}

func (e *Engine) setView(v filter.View) {
	e.view = v
	e.sim.Sync(v.Nodes, v.Links)

	if e.dragging != "" {
		if _, ok := e.sim.Position(e.dragging); ok {
			e.sim.Hold(e.dragging)
		} else {
			e.dragging = ""
		}
	}

	if e.opts.Mode == ModeHierarchical {
		for key, pos := range Hierarchical(v.Nodes, v.Links, e.opts.Hierarchy) {
			if key == e.dragging {
				continue
			}
			e.sim.SetPosition(key, pos)
		}
	}
}

// AnimateFit re-frames the current view over FitDuration.
func (e *Engine) AnimateFit(now time.Time) {
	e.viewport.AnimateFit(e.sim.Bounds(), now)
}

// Tick advances physics by one step and the viewport animation to now. It
// reports whether anything visible changed.
func (e *Engine) Tick(now time.Time) bool {
	if !e.loaded {
		return false
	}

	changed := e.viewport.Advance(now)

	if e.opts.Mode == ModeForce && (e.sim.Moving() || e.dragging != "") {
		e.sim.Step()
		changed = true
	}

	return changed
}

// Stabilized reports whether the force layout has settled at least once.
func (e *Engine) Stabilized() bool {
	return e.opts.Mode == ModeHierarchical || e.sim.Stabilized()
}

// Settled reports whether nothing is moving or animating.
func (e *Engine) Settled() bool {
	moving := e.opts.Mode == ModeForce && e.sim.Moving()

	return !moving && !e.viewport.Animating() && e.dragging == ""
}

// Stabilize runs up to n extra physics steps.
func (e *Engine) Stabilize(n int) {
	if e.opts.Mode == ModeForce {
		e.sim.Stabilize(n)
	}
}

// Fit frames the current view instantly.
func (e *Engine) Fit() {
	e.viewport.Fit(e.sim.Bounds())
}

// Viewport exposes the viewport for coordinate conversion.
func (e *Engine) Viewport() *Viewport { return e.viewport }

// Position returns the current world position of a node.
func (e *Engine) Position(id models.NodeID) (models.Position, bool) {
	return e.sim.Position(id.Key())
}

// BeginDrag holds a node under the pointer and heats the simulation.
func (e *Engine) BeginDrag(id models.NodeID) bool {
	key := id.Key()
	if _, ok := e.sim.Position(key); !ok {
		return false
	}

	e.dragging = key
	e.sim.Hold(key)

	if e.opts.Mode == ModeForce {
		e.sim.Heat()
	}

	return true
}

// DragTo moves the dragged node to screen point p.
func (e *Engine) DragTo(p Point) {
	if e.dragging == "" {
		return
	}

	w := e.viewport.ToWorld(p)
	e.sim.SetPosition(e.dragging, models.Position{X: w.X, Y: w.Y})
}

// EndDrag releases the dragged node and returns its final world position.
func (e *Engine) EndDrag() (models.Position, bool) {
	if e.dragging == "" {
		return models.Position{}, false
	}

	key := e.dragging
	e.dragging = ""

	pos, ok := e.sim.Position(key)
	e.sim.Release(key)

	if e.opts.Mode == ModeForce {
		e.sim.Cool()
	}

	return pos, ok
}

// Dragging returns the key of the node being dragged, if any.
func (e *Engine) Dragging() string { return e.dragging }

// nodeByKey looks a node up in the current view.
func (e *Engine) nodeByKey(key string) *models.Node {
	for _, n := range e.view.Nodes {
		if n.ID.Key() == key {
			return n
		}
	}

	return nil
}

// NodeAt returns the topmost node under screen point p.
func (e *Engine) NodeAt(p Point) (*models.Node, bool) {
	w := e.viewport.ToWorld(p)

	for i := len(e.view.Nodes) - 1; i >= 0; i-- {
		n := e.view.Nodes[i]
		pos, ok := e.sim.Position(n.ID.Key())
		if !ok {
			continue
		}

		if math.Hypot(w.X-pos.X, w.Y-pos.Y) <= e.sim.Radius(n.ID.Key()) {
			return n, true
		}
	}

	return nil, false
}

// EdgeAt returns the topmost edge under screen point p.
func (e *Engine) EdgeAt(p Point) (*models.Link, bool) {
	w := e.viewport.ToWorld(p)

	for i := len(e.view.Links) - 1; i >= 0; i-- {
		l := e.view.Links[i]
		a, okA := e.sim.Position(l.Source.Key())
		b, okB := e.sim.Position(l.Target.Key())
		if !okA || !okB {
			continue
		}

		tol := EdgeWidth(l.Weight)/2 + 4/e.viewport.Scale

		if l.SelfLoop() {
			c, r := loopCircle(a, e.sim.Radius(l.Source.Key()))
			if math.Abs(math.Hypot(w.X-c.X, w.Y-c.Y)-r) <= tol {
				return l, true
			}
			continue
		}

		if segmentDistance(w, Point{X: a.X, Y: a.Y}, Point{X: b.X, Y: b.Y}) <= tol {
			return l, true
		}
	}

	return nil, false
}

// loopCircle returns the centre and radius of a self-loop ring above a node.
func loopCircle(pos models.Position, radius float64) (Point, float64) {
	return Point{X: pos.X, Y: pos.Y - 1.2*radius}, 0.7 * radius
}

func segmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// Frame returns the current view model in screen space.
func (e *Engine) Frame() Frame {
	f := Frame{
		Width:      e.viewport.Width,
		Height:     e.viewport.Height,
		Scale:      e.viewport.Scale,
		Stabilized: e.Stabilized(),
		Filtered:   !e.view.Full,
		Term:       e.view.Term,
		Nodes:      make([]NodeFrame, 0, len(e.view.Nodes)),
		Edges:      make([]EdgeFrame, 0, len(e.view.Links)),
	}

	for _, l := range e.view.Links {
		a, okA := e.sim.Position(l.Source.Key())
		b, okB := e.sim.Position(l.Target.Key())
		if !okA || !okB {
			continue
		}

		sa := e.viewport.ToScreen(Point{X: a.X, Y: a.Y})
		sb := e.viewport.ToScreen(Point{X: b.X, Y: b.Y})

		f.Edges = append(f.Edges, EdgeFrame{
			Source:   l.Source.Key(),
			Target:   l.Target.Key(),
			Label:    l.Relation,
			X1:       sa.X,
			Y1:       sa.Y,
			X2:       sb.X,
			Y2:       sb.Y,
			Width:    EdgeWidth(l.Weight) * e.viewport.Scale,
			SelfLoop: l.SelfLoop(),
		})
	}

	for _, n := range e.view.Nodes {
		key := n.ID.Key()
		pos, ok := e.sim.Position(key)
		if !ok {
			continue
		}

		s := e.viewport.ToScreen(Point{X: pos.X, Y: pos.Y})

		f.Nodes = append(f.Nodes, NodeFrame{
			ID:      key,
			Label:   n.Label,
			X:       s.X,
			Y:       s.Y,
			WorldX:  pos.X,
			WorldY:  pos.Y,
			Radius:  e.sim.Radius(key) * e.viewport.Scale,
			Fixed:   e.sim.Pinned(key),
			Matched: e.view.Matched[key],
		})
	}

	return f
}

// Node returns the node with key from the current view.
func (e *Engine) Node(key string) (*models.Node, bool) {
	n := e.nodeByKey(key)

	return n, n != nil
}
