// Package quiz implements the node detail overlay: a summary view and a
// one-question-at-a-time quiz that records attempts.
package quiz

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

// Phase is the overlay state.
type Phase string

// Overlay phases.
const (
	PhaseClosed  Phase = "closed"
	PhaseSummary Phase = "summary"
	PhaseQuiz    Phase = "quiz"
)

// Shuffler returns a permutation of [0, n). Entry i names the original option
// shown at position i.
type Shuffler func(n int) []int

// RandomShuffler draws uniform permutations.
func RandomShuffler(n int) []int { return rand.Perm(n) }

// Readout is the accuracy shown in the summary.
type Readout struct {
	Correct  int     `json:"correct"`
	Attempts int     `json:"attempts"`
	Percent  float64 `json:"percent"`
}

// QuestionView is the visible state of the current question. Answer is -1
// until the question is submitted.
type QuestionView struct {
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Selected  int      `json:"selected"`
	Submitted bool     `json:"submitted"`
	Answer    int      `json:"answer"`
	CanNext   bool     `json:"can_next"`
	CanPrev   bool     `json:"can_prev"`
}

// View is the serializable overlay state.
type View struct {
	Phase    Phase         `json:"phase"`
	NodeID   string        `json:"node_id,omitempty"`
	Label    string        `json:"label,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	HasQuiz  bool          `json:"has_quiz,omitempty"`
	Accuracy *Readout      `json:"accuracy,omitempty"`
	Question *QuestionView `json:"question,omitempty"`
}

// Overlay is the node detail state machine. It is not safe for concurrent use.
type Overlay struct {
	stats   Stats
	shuffle Shuffler
	log     *logrus.Logger

	phase   Phase
	graphID string
	node    *models.Node

	q         int
	options   []string
	answer    int
	selected  int
	submitted bool
}

// NewOverlay creates a closed overlay. A nil shuffle uses RandomShuffler.
func NewOverlay(stats Stats, shuffle Shuffler, log *logrus.Logger) *Overlay {
	if shuffle == nil {
		shuffle = RandomShuffler
	}

	return &Overlay{stats: stats, shuffle: shuffle, log: log, phase: PhaseClosed, selected: -1, answer: -1}
}

// Phase returns the current phase.
func (o *Overlay) Phase() Phase { return o.phase }

// Open shows the summary for node.
func (o *Overlay) Open(graphID string, node *models.Node) {
	if node == nil {
		return
	}

	o.graphID = graphID
	o.node = node
	o.phase = PhaseSummary
	o.resetQuestion()
}

// Close discards any unsubmitted answer.
func (o *Overlay) Close() {
	o.phase = PhaseClosed
	o.node = nil
	o.graphID = ""
	o.resetQuestion()
}

// Accuracy returns the prior statistics for the open node.
func (o *Overlay) Accuracy() (Readout, bool) {
	if o.node == nil || o.stats == nil {
		return Readout{}, false
	}

	s, ok := o.stats.Lookup(o.graphID, o.node.ID.Key())
	if !ok || s.Attempts == 0 {
		return Readout{}, false
	}

	return Readout{Correct: s.Correct, Attempts: s.Attempts, Percent: s.Accuracy()}, true
}

// StartQuiz enters the quiz at the first question. Nodes without questions
// stay in the summary.
func (o *Overlay) StartQuiz() bool {
	if o.phase != PhaseSummary || len(o.node.Quiz) == 0 {
		return false
	}

	o.phase = PhaseQuiz
	o.show(0)

	return true
}

// show enters question q with freshly shuffled options.
func (o *Overlay) show(q int) {
	o.q = q
	o.selected = -1
	o.submitted = false

	question := o.node.Quiz[q]
	n := len(question.Options)

	perm := o.shuffle(n)
	if !isPermutation(perm, n) {
		perm = identity(n)
	}

	o.options = make([]string, n)
	o.answer = -1

	for i, from := range perm {
		o.options[i] = question.Options[from]
		if from == question.AnswerIndex {
			o.answer = i
		}
	}

	if err := question.Validate(); err != nil {
		o.log.WithFields(logrus.Fields{
			"action":  "quiz.question",
			"node_id": o.node.ID.Key(),
		}).WithError(err).Warn("malformed quiz question")
	}
}

func (o *Overlay) resetQuestion() {
	o.q = 0
	o.options = nil
	o.answer = -1
	o.selected = -1
	o.submitted = false
}

// Select marks option i. Ignored after submission.
func (o *Overlay) Select(i int) bool {
	if o.phase != PhaseQuiz || o.submitted || i < 0 || i >= len(o.options) {
		return false
	}

	o.selected = i

	return true
}

// Submit locks the current question and records one attempt. It returns
// whether the selection was correct and whether the submit was accepted.
func (o *Overlay) Submit() (correct, ok bool) {
	if o.phase != PhaseQuiz || o.submitted || o.selected < 0 {
		return false, false
	}

	o.submitted = true
	correct = o.selected == o.answer

	if o.stats != nil {
		o.stats.RecordAttempt(o.graphID, o.node.ID.Key(), o.node.Label, correct)
	}

	o.log.WithFields(logrus.Fields{
		"action":   "quiz.submit",
		"graph_id": o.graphID,
		"node_id":  o.node.ID.Key(),
		"correct":  correct,
	}).Debug("quiz answer recorded")

	return correct, true
}

// Next advances after a submission. On the last question it returns to the
// summary.
func (o *Overlay) Next() bool {
	if o.phase != PhaseQuiz || !o.submitted {
		return false
	}

	if o.q == len(o.node.Quiz)-1 {
		o.phase = PhaseSummary
		o.resetQuestion()

		return true
	}

	o.show(o.q + 1)

	return true
}

// Previous goes back one question without recording anything.
func (o *Overlay) Previous() bool {
	if o.phase != PhaseQuiz || o.q == 0 {
		return false
	}

	o.show(o.q - 1)

	return true
}

// Current returns the visible question state.
func (o *Overlay) Current() (QuestionView, bool) {
	if o.phase != PhaseQuiz {
		return QuestionView{}, false
	}

	v := QuestionView{
		Index:     o.q,
		Total:     len(o.node.Quiz),
		Question:  o.node.Quiz[o.q].Question,
		Options:   append([]string(nil), o.options...),
		Selected:  o.selected,
		Submitted: o.submitted,
		Answer:    -1,
		CanNext:   o.submitted,
		CanPrev:   o.q > 0,
	}

	if o.submitted {
		v.Answer = o.answer
	}

	return v, true
}

// View returns the full overlay state.
func (o *Overlay) View() View {
	if o.phase == PhaseClosed || o.node == nil {
		return View{Phase: PhaseClosed}
	}

	v := View{
		Phase:   o.phase,
		NodeID:  o.node.ID.Key(),
		Label:   o.node.Label,
		Summary: o.node.Summary,
		HasQuiz: len(o.node.Quiz) > 0,
	}

	if r, ok := o.Accuracy(); ok {
		v.Accuracy = &r
	}

	if q, ok := o.Current(); ok {
		v.Question = &q
	}

	return v
}

func isPermutation(p []int, n int) bool {
	if len(p) != n {
		return false
	}

	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}

	return true
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}

	return p
}
