// Package viewer runs one interactive graph view as a single event loop.
//
// A Session owns the graph model, the filtered view, the layout engine, the
// gesture controller and the node detail overlay. Only the Run goroutine
// touches them; everything else talks to it through Post and callbacks.
package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/filter"
	"github.com/persistorai/mindmap/internal/graph"
	"github.com/persistorai/mindmap/internal/interaction"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
	"github.com/persistorai/mindmap/internal/quiz"
)

// Defaults.
const (
	DefaultTickInterval = 25 * time.Millisecond
	inputBuffer         = 64
)

// ErrSessionClosed is returned by Post after Run has exited.
var ErrSessionClosed = errors.New("viewer session closed")

// Persister accepts snapshots for best-effort storage. It must not block.
type Persister interface {
	Persist(g *models.Graph)
}

// EditView describes the pending inline edit.
type EditView struct {
	Kind    string `json:"kind"`
	NodeID  string `json:"node_id,omitempty"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Current string `json:"current"`
}

// Update is what a session emits after its visible state changed.
type Update struct {
	Frame   *layout.Frame `json:"frame,omitempty"`
	Overlay *quiz.View    `json:"overlay,omitempty"`
	Edit    *EditView     `json:"edit,omitempty"`
}

// Options configures a Session.
type Options struct {
	// GraphID keys quiz statistics. Empty falls back to the graph's own id.
	GraphID      string
	Layout       layout.Options
	TickInterval time.Duration
	Stats        quiz.Stats
	Shuffler     quiz.Shuffler
	Persister    Persister
	OnUpdate     func(Update)
	OnSnapshot   func(*models.Graph)
	OnActivate   func(*models.Node)
	Now          func() time.Time
}

// Session is one live graph view.
type Session struct {
	opts    Options
	log     *logrus.Logger
	inputs  chan Input
	done    chan struct{}
	model   *graph.Model
	engine  *layout.Engine
	ctrl    *interaction.Controller
	overlay *quiz.Overlay
	term    string
	broken  bool
}

// NewSession creates a session for g. g may be nil; a graph can be supplied
// later with an InputReplace event.
func NewSession(g *models.Graph, opts Options, log *logrus.Logger) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		opts:   opts,
		log:    log,
		inputs: make(chan Input, inputBuffer),
		done:   make(chan struct{}),
		engine: layout.NewEngine(opts.Layout, log),
	}

	s.model = graph.NewModel(g, s.onSnapshot, log)
	s.ctrl = interaction.NewController(s.engine, s.model, s.onActivate, log)
	s.overlay = quiz.NewOverlay(opts.Stats, opts.Shuffler, log)

	return s
}

// Post delivers an input to the event loop.
func (s *Session) Post(ctx context.Context, in Input) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inputs <- in:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes inputs and layout ticks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	s.load(s.model.Graph())
	s.emit()

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.ctrl.Reset()
			s.log.WithField("action", "viewer.stop").Debug("session stopped")

			return nil
		case in := <-s.inputs:
			if s.handle(in) {
				s.emit()
			}
		case <-ticker.C:
			if s.tick() {
				s.emit()
			}
		}
	}
}

// load lays out g from scratch. A malformed graph is logged and leaves the
// session idle until a valid one arrives.
func (s *Session) load(g *models.Graph) {
	if g == nil {
		s.broken = true
		return
	}

	if err := s.engine.Load(g); err != nil {
		s.broken = true
		s.log.WithFields(logrus.Fields{
			"action":   "viewer.load",
			"graph_id": g.ID(),
		}).WithError(err).Warn("skipping render of malformed graph")

		return
	}

	s.broken = false

	if s.term != "" {
		s.engine.SetView(filter.Filter(g, s.term), s.opts.Now())
	}
}

func (s *Session) tick() bool {
	if s.broken {
		return false
	}

	return s.engine.Tick(s.opts.Now())
}

// handle applies one input and reports whether the visible state changed.
func (s *Session) handle(in Input) bool { //nolint:gocyclo,cyclop // one case per input kind.
	if in.Kind == InputReplace {
		s.replace(in.Graph)
		return true
	}

	if s.broken {
		return false
	}

	now := s.opts.Now()

	switch in.Kind {
	case InputSearch:
		if in.Term == s.term {
			return false
		}
		s.term = in.Term
		s.engine.SetView(filter.Filter(s.model.Graph(), s.term), now)
	case InputFit:
		s.engine.AnimateFit(now)
	case InputPress:
		return s.ctrl.Press(in.Point())
	case InputMove:
		s.ctrl.Move(in.Point())
	case InputRelease:
		s.ctrl.Release(in.Point())
	case InputClick:
		s.ctrl.Click(in.Point(), in.Modifiers())
	case InputDoubleClick:
		return s.ctrl.DoubleClick(in.Point())
	case InputEditNode:
		return s.ctrl.BeginNodeEdit(models.ParseNodeID(in.NodeID))
	case InputEditEdge:
		return s.ctrl.BeginEdgeEdit(models.ParseNodeID(in.Source), models.ParseNodeID(in.Target))
	case InputCommit:
		s.ctrl.Commit(in.Label)
	case InputCancel:
		s.ctrl.Cancel()
	case InputQuiz:
		return s.handleQuiz(in)
	default:
		s.log.WithField("type", string(in.Kind)).Debug("ignoring unknown input")
		return false
	}

	return true
}

func (s *Session) handleQuiz(in Input) bool {
	switch in.Action {
	case QuizStart:
		return s.overlay.StartQuiz()
	case QuizSelect:
		return s.overlay.Select(in.Option)
	case QuizSubmit:
		_, ok := s.overlay.Submit()
		return ok
	case QuizNext:
		return s.overlay.Next()
	case QuizPrevious:
		return s.overlay.Previous()
	case QuizClose:
		s.overlay.Close()
		return true
	default:
		return false
	}
}

// replace swaps in a new graph and abandons every gesture tied to the old one.
func (s *Session) replace(g *models.Graph) {
	s.ctrl.Reset()
	s.overlay.Close()
	s.model.Replace(g)
	s.load(g)
}

// onSnapshot receives every mutation from the model.
func (s *Session) onSnapshot(g *models.Graph) {
	s.engine.Refresh(filter.Filter(g, s.term))

	if s.opts.Persister != nil {
		s.opts.Persister.Persist(g)
	}

	if s.opts.OnSnapshot != nil {
		s.opts.OnSnapshot(g)
	}
}

func (s *Session) onActivate(n *models.Node) {
	s.overlay.Open(s.graphID(), n)

	if s.opts.OnActivate != nil {
		s.opts.OnActivate(n)
	}
}

func (s *Session) graphID() string {
	if s.opts.GraphID != "" {
		return s.opts.GraphID
	}

	return s.model.Graph().ID()
}

func (s *Session) emit() {
	if s.opts.OnUpdate == nil {
		return
	}

	var u Update

	if !s.broken {
		f := s.engine.Frame()
		u.Frame = &f
	}

	ov := s.overlay.View()
	u.Overlay = &ov

	if e, ok := s.ctrl.Editing(); ok {
		ev := &EditView{Kind: e.Kind.String(), Current: e.Current}
		if e.Kind == graph.KindEdge {
			ev.Source, ev.Target = e.Target.Edge.Source, e.Target.Edge.Target
		} else {
			ev.NodeID = e.Target.Node.Key()
		}
		u.Edit = ev
	}

	s.opts.OnUpdate(u)
}
