package viewer

import (
	"github.com/persistorai/mindmap/internal/interaction"
	"github.com/persistorai/mindmap/internal/layout"
	"github.com/persistorai/mindmap/internal/models"
)

// InputKind names one event delivered to a session.
type InputKind string

// Input kinds.
const (
	InputSearch      InputKind = "search"
	InputPress       InputKind = "press"
	InputMove        InputKind = "move"
	InputRelease     InputKind = "release"
	InputClick       InputKind = "click"
	InputDoubleClick InputKind = "dblclick"
	InputEditNode    InputKind = "edit_node"
	InputEditEdge    InputKind = "edit_edge"
	InputCommit      InputKind = "commit"
	InputCancel      InputKind = "cancel"
	InputQuiz        InputKind = "quiz"
	InputReplace     InputKind = "replace"
	InputFit         InputKind = "fit"
)

// Quiz actions carried in Input.Action.
const (
	QuizStart    = "start"
	QuizSelect   = "select"
	QuizSubmit   = "submit"
	QuizNext     = "next"
	QuizPrevious = "previous"
	QuizClose    = "close"
)

// Input is one client event. Coordinates are in canvas pixels.
type Input struct {
	Kind   InputKind     `json:"type"`
	Term   string        `json:"term,omitempty"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
	Ctrl   bool          `json:"ctrl,omitempty"`
	Meta   bool          `json:"meta,omitempty"`
	Shift  bool          `json:"shift,omitempty"`
	Alt    bool          `json:"alt,omitempty"`
	NodeID string        `json:"node_id,omitempty"`
	Source string        `json:"source,omitempty"`
	Target string        `json:"target,omitempty"`
	Label  string        `json:"label,omitempty"`
	Action string        `json:"action,omitempty"`
	Option int           `json:"option,omitempty"`
	Graph  *models.Graph `json:"graph,omitempty"`
}

// Point returns the pointer position.
func (in Input) Point() layout.Point {
	return layout.Point{X: in.X, Y: in.Y}
}

// Modifiers returns the held keys as a bit set.
func (in Input) Modifiers() interaction.Modifiers {
	var m interaction.Modifiers
	if in.Shift {
		m |= interaction.ModShift
	}
	if in.Ctrl {
		m |= interaction.ModCtrl
	}
	if in.Alt {
		m |= interaction.ModAlt
	}
	if in.Meta {
		m |= interaction.ModMeta
	}

	return m
}
