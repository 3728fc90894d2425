package filter

import (
	"strings"

	"github.com/persistorai/mindmap/internal/models"
)

// View is the node and edge set handed to the layout engine.
type View struct {
	Nodes   []*models.Node
	Links   []*models.Link
	Term    string
	Full    bool
	Matched map[string]bool
}

// Has reports whether node key is part of the view.
func (v View) Has(key string) bool {
	for _, n := range v.Nodes {
		if n.ID.Key() == key {
			return true
		}
	}

	return false
}

// Identity returns the unfiltered view of g.
func Identity(g *models.Graph) View {
	if g == nil {
		return View{Full: true}
	}

	return View{Nodes: g.Nodes, Links: g.Links, Full: true}
}

// Filter returns the matched nodes, every link touching one of them and the
// nodes at the other end of those links. A blank term yields Identity(g).
// Filter is pure; g is never modified and element order follows g.
func Filter(g *models.Graph, term string) View {
	if g == nil || strings.TrimSpace(term) == "" {
		return Identity(g)
	}

	needle := Normalize(strings.TrimSpace(term))

	matched := make(map[string]bool)
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}

		if labelMatches(Normalize(n.Label), needle) {
			matched[n.ID.Key()] = true
		}
	}

	present := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n != nil {
			present[n.ID.Key()] = true
		}
	}

	include := make(map[string]bool, len(matched))
	for k := range matched {
		include[k] = true
	}

	links := make([]*models.Link, 0)
	for _, l := range g.Links {
		if l == nil {
			continue
		}

		src, dst := l.Source.Key(), l.Target.Key()
		if !matched[src] && !matched[dst] {
			continue
		}

		// A link to a missing node would leave a dangling edge in the view.
		if !present[src] || !present[dst] {
			continue
		}

		links = append(links, l)
		include[src] = true
		include[dst] = true
	}

	nodes := make([]*models.Node, 0, len(include))
	for _, n := range g.Nodes {
		if n != nil && include[n.ID.Key()] {
			nodes = append(nodes, n)
		}
	}

	return View{Nodes: nodes, Links: links, Term: term, Matched: matched}
}

// labelMatches is a substring test, except that a term with nothing left after
// normalization only matches labels that also normalize to nothing.
func labelMatches(label, needle string) bool {
	if needle == "" {
		return label == ""
	}

	return strings.Contains(label, needle)
}
