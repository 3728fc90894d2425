package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Message types written to clients besides room events.
const (
	TypeFrame    = "frame"
	TypeReset    = "reset"
	TypeError    = "error"
	TypeShutdown = "shutdown"
)

// Message types read from clients besides viewer inputs.
const (
	TypeSubscribe = "subscribe"
)

// Event is a room event sent to every viewer of one graph.
type Event struct {
	Type string          `json:"type"`
	ID   uint64          `json:"id"`
	Room string          `json:"-"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}

// SubscribeMsg asks for the room events missed since LastEventID.
type SubscribeMsg struct {
	Type        string `json:"type"`
	LastEventID uint64 `json:"last_event_id"`
}

// ResetMsg tells the client to reload the graph (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ErrorMsg reports a rejected input.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EventSequence hands out monotonic event ids per room.
type EventSequence struct {
	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

// NewEventSequence creates an EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{counters: make(map[string]*atomic.Uint64)}
}

// Next returns the next id for room.
func (es *EventSequence) Next(room string) uint64 {
	es.mu.Lock()
	counter, ok := es.counters[room]
	if !ok {
		counter = &atomic.Uint64{}
		es.counters[room] = counter
	}
	es.mu.Unlock()

	return counter.Add(1)
}
