// Package models defines data types for concept graphs, the gallery and quiz statistics.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Graph is the canonical concept graph. Keys other than nodes and links are
// carried in Extra and written back verbatim.
type Graph struct {
	Nodes []*Node
	Links []*Link
	Extra map[string]json.RawMessage
}

// Well-known extra keys.
const (
	ExtraTranscript = "transcript"
	ExtraID         = "id"
)

// UnmarshalJSON decodes a graph, keeping unknown keys in Extra. A missing
// nodes or links key leaves the slice nil so validation can report it.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding graph: %w", err)
	}

	*g = Graph{}

	if v, ok := raw["nodes"]; ok {
		g.Nodes = []*Node{}
		if !isNull(v) {
			if err := json.Unmarshal(v, &g.Nodes); err != nil {
				return fmt.Errorf("decoding graph nodes: %w", err)
			}
		}
		delete(raw, "nodes")
	}

	if v, ok := raw["links"]; ok {
		g.Links = []*Link{}
		if !isNull(v) {
			if err := json.Unmarshal(v, &g.Links); err != nil {
				return fmt.Errorf("decoding graph links: %w", err)
			}
		}
		delete(raw, "links")
	}

	if len(raw) > 0 {
		g.Extra = raw
	}

	return nil
}

// MarshalJSON encodes nodes, links and every extra key in a stable order.
func (g Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	nodes := g.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	links := g.Links
	if links == nil {
		links = []*Link{}
	}

	if err := writeField(&buf, "nodes", nodes, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "links", links, false); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(g.Extra))
	for k := range g.Extra {
		if k == "nodes" || k == "links" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writeField(&buf, k, g.Extra[k], false); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}

	k, _ := json.Marshal(key) //nolint:errcheck // strings always marshal.
	buf.Write(k)
	buf.WriteByte(':')

	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			buf.WriteString("null")
			return nil
		}
		buf.Write(raw)
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding graph %s: %w", key, err)
	}
	buf.Write(data)

	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// ExtraString returns the string value of an extra key, or "" when absent or
// not a string.
func (g *Graph) ExtraString(key string) string {
	if g == nil || g.Extra == nil {
		return ""
	}

	v, ok := g.Extra[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}

	return s
}

// Transcript returns the transcript carried by the graph, if any.
func (g *Graph) Transcript() string { return g.ExtraString(ExtraTranscript) }

// ID returns the caller-assigned graph id, if any. Numeric ids are returned
// in their JSON text form.
func (g *Graph) ID() string {
	if g == nil || g.Extra == nil {
		return ""
	}

	v, ok := g.Extra[ExtraID]
	if !ok {
		return ""
	}

	var id NodeID
	if err := json.Unmarshal(v, &id); err != nil {
		return ""
	}

	return id.Key()
}

// WithExtra returns a shallow copy of g with key set to the JSON encoding of v.
// Nodes and links are shared with g.
func (g *Graph) WithExtra(key string, v any) (*Graph, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding extra %s: %w", key, err)
	}

	out := &Graph{Nodes: g.Nodes, Links: g.Links, Extra: make(map[string]json.RawMessage, len(g.Extra)+1)}
	for k, raw := range g.Extra {
		out.Extra[k] = raw
	}
	out.Extra[key] = data

	return out, nil
}

// NodeByID returns the first node with the given id.
func (g *Graph) NodeByID(id NodeID) (*Node, int) {
	for i, n := range g.Nodes {
		if n.ID.Equal(id) {
			return n, i
		}
	}

	return nil, -1
}

// LinkByKey returns the first link addressed by key.
func (g *Graph) LinkByKey(key EdgeKey) (*Link, int) {
	for i, l := range g.Links {
		if l.Key() == key {
			return l, i
		}
	}

	return nil, -1
}

// Title returns the label of the first node, the default gallery title.
func (g *Graph) Title() string {
	if g == nil || len(g.Nodes) == 0 || g.Nodes[0] == nil {
		return "Untitled"
	}

	return g.Nodes[0].Label
}
