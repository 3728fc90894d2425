package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NodeID identifies a node. Ids arrive as JSON strings or numbers; the kind
// is remembered so numeric ids encode back as numbers. Identity is the
// textual key, so 1 and "1" address the same node.
type NodeID struct {
	key     string
	numeric bool
}

// StringID returns a string-kind node id.
func StringID(s string) NodeID { return NodeID{key: s} }

// NumberID returns a numeric node id.
func NumberID(n int64) NodeID { return NodeID{key: strconv.FormatInt(n, 10), numeric: true} }

// ParseNodeID builds an id from path or query text. Only the key matters for lookups.
func ParseNodeID(s string) NodeID { return NodeID{key: s} }

// Key returns the textual identity of the id.
func (id NodeID) Key() string { return id.key }

// String implements fmt.Stringer.
func (id NodeID) String() string { return id.key }

// IsZero reports whether the id is empty.
func (id NodeID) IsZero() bool { return id.key == "" }

// Equal reports whether both ids address the same node.
func (id NodeID) Equal(other NodeID) bool { return id.key == other.key }

// MarshalJSON implements json.Marshaler.
func (id NodeID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.key), nil
	}

	return json.Marshal(id.key)
}

// UnmarshalJSON accepts a JSON string or number.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty node id")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding node id: %w", err)
		}
		*id = NodeID{key: s}

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or number: %w", err)
	}
	*id = NodeID{key: n.String(), numeric: true}

	return nil
}

// Position is a point in layout space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one concept in the graph.
type Node struct {
	ID      NodeID     `json:"id"`
	Label   string     `json:"label"`
	Weight  float64    `json:"weight"`
	Summary string     `json:"summary,omitempty"`
	Quiz    []Question `json:"quiz,omitempty"`
	Fixed   bool       `json:"fixed,omitempty"`
	X       *float64   `json:"x,omitempty"`
	Y       *float64   `json:"y,omitempty"`
}

// Pinned reports whether the node is held at explicit coordinates.
func (n *Node) Pinned() bool {
	return n.Fixed && n.X != nil && n.Y != nil
}

// PinnedAt returns the pinned position, if any.
func (n *Node) PinnedAt() (Position, bool) {
	if !n.Pinned() {
		return Position{}, false
	}

	return Position{X: *n.X, Y: *n.Y}, true
}

// Question is one multiple-choice quiz item attached to a node.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// Validate checks that the question has at least two options and a valid answer index.
func (q *Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q needs at least 2 options", q.Question)
	}

	if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
		return fmt.Errorf("question %q answer_index %d out of range", q.Question, q.AnswerIndex)
	}

	return nil
}
