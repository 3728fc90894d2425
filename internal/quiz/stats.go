package quiz

import (
	"maps"
	"sync"

	"github.com/persistorai/mindmap/internal/models"
)

// Stats reads prior results and records new attempts. RecordAttempt must not
// block the caller on I/O.
type Stats interface {
	Lookup(graphID, nodeID string) (models.QuizStat, bool)
	RecordAttempt(graphID, nodeID, label string, correct bool)
}

// MemoryStats is an in-process Stats. It is safe for concurrent use.
type MemoryStats struct {
	mu    sync.RWMutex
	stats models.QuizStats
	after func(graphID, nodeID, label string, correct bool)
}

// NewMemoryStats creates an empty recorder. If after is non-nil it is called
// with every recorded attempt, outside the lock.
func NewMemoryStats(after func(graphID, nodeID, label string, correct bool)) *MemoryStats {
	return &MemoryStats{stats: make(models.QuizStats), after: after}
}

// Load merges previously persisted statistics for one graph.
func (m *MemoryStats) Load(graphID string, stats map[string]models.QuizStat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byNode := m.stats[graphID]
	if byNode == nil {
		byNode = make(map[string]models.QuizStat, len(stats))
		m.stats[graphID] = byNode
	}

	maps.Copy(byNode, stats)
}

// Lookup implements Stats.
func (m *MemoryStats) Lookup(graphID, nodeID string) (models.QuizStat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stats[graphID][nodeID]

	return s, ok
}

// RecordAttempt implements Stats.
func (m *MemoryStats) RecordAttempt(graphID, nodeID, label string, correct bool) {
	m.mu.Lock()

	byNode := m.stats[graphID]
	if byNode == nil {
		byNode = make(map[string]models.QuizStat)
		m.stats[graphID] = byNode
	}

	s := byNode[nodeID]
	s.Attempts++
	if correct {
		s.Correct++
	}
	s.Label = label
	byNode[nodeID] = s

	m.mu.Unlock()

	if m.after != nil {
		m.after(graphID, nodeID, label, correct)
	}
}

// Graph returns a copy of the statistics for one graph.
func (m *MemoryStats) Graph(graphID string) map[string]models.QuizStat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.stats[graphID])
}
