package layout

import (
	"github.com/persistorai/mindmap/internal/models"
)

// HierarchyOptions controls the level layout.
type HierarchyOptions struct {
	LevelSeparation float64
	NodeSpacing     float64
}

// DefaultHierarchy is the left-to-right arrangement used when no options are given.
var DefaultHierarchy = HierarchyOptions{LevelSeparation: 150, NodeSpacing: 100}

// Levels assigns each node a level so that link sources sit left of their
// targets. Cycles are broken at the earliest remaining node in input order.
// Self-loops and links to unknown nodes are ignored.
func Levels(nodes []*models.Node, links []*models.Link) map[string]int {
	order := make([]string, 0, len(nodes))
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		k := n.ID.Key()
		if known[k] {
			continue
		}
		known[k] = true
		order = append(order, k)
	}

	indeg := make(map[string]int, len(order))
	out := make(map[string][]string, len(order))
	for _, l := range links {
		src, dst := l.Source.Key(), l.Target.Key()
		if src == dst || !known[src] || !known[dst] {
			continue
		}
		out[src] = append(out[src], dst)
		indeg[dst]++
	}

	level := make(map[string]int, len(order))
	done := make(map[string]bool, len(order))

	for len(done) < len(order) {
		var queue []string
		for _, k := range order {
			if !done[k] && indeg[k] == 0 {
				queue = append(queue, k)
			}
		}

		// Every remaining node is on a cycle.
		if len(queue) == 0 {
			for _, k := range order {
				if !done[k] {
					queue = append(queue, k)
					break
				}
			}
		}

		for len(queue) > 0 {
			k := queue[0]
			queue = queue[1:]
			if done[k] {
				continue
			}
			done[k] = true

			for _, next := range out[k] {
				if done[next] {
					continue
				}
				if level[k]+1 > level[next] {
					level[next] = level[k] + 1
				}
				indeg[next]--
				if indeg[next] == 0 {
					queue = append(queue, next)
				}
			}
		}
	}

	return level
}

// Hierarchical positions unpinned nodes by level: x grows with the level and
// each level is centred vertically. Pinned nodes keep their coordinates.
func Hierarchical(nodes []*models.Node, links []*models.Link, opts HierarchyOptions) map[string]models.Position {
	if opts.LevelSeparation <= 0 {
		opts.LevelSeparation = DefaultHierarchy.LevelSeparation
	}
	if opts.NodeSpacing <= 0 {
		opts.NodeSpacing = DefaultHierarchy.NodeSpacing
	}

	levels := Levels(nodes, links)

	rows := make(map[int][]string)
	maxLevel := 0
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		k := n.ID.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		lv := levels[k]
		rows[lv] = append(rows[lv], k)
		if lv > maxLevel {
			maxLevel = lv
		}
	}

	pos := make(map[string]models.Position, len(nodes))
	for lv := 0; lv <= maxLevel; lv++ {
		row := rows[lv]
		top := -float64(len(row)-1) * opts.NodeSpacing / 2
		for i, k := range row {
			pos[k] = models.Position{X: float64(lv) * opts.LevelSeparation, Y: top + float64(i)*opts.NodeSpacing}
		}
	}

	for _, n := range nodes {
		if p, ok := n.PinnedAt(); ok {
			pos[n.ID.Key()] = p
		}
	}

	return pos
}
