package ws

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 200
	defaultBufferMaxAge = 30 * time.Minute
	bufferSweepInterval = 5 * time.Minute
)

// EventBuffer keeps recent events per room so reconnecting viewers can
// catch up.
type EventBuffer struct {
	mu     sync.RWMutex
	events map[string][]Event
	maxAge time.Duration
	maxLen int
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewEventBuffer creates an EventBuffer and starts its sweeper.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	eb := &EventBuffer{
		events: make(map[string][]Event),
		maxAge: maxAge,
		maxLen: maxLen,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go eb.sweepLoop()

	return eb
}

// Stop halts the sweeper. Safe to call twice.
func (eb *EventBuffer) Stop() {
	eb.once.Do(func() { close(eb.stop) })
}

func (eb *EventBuffer) sweepLoop() {
	ticker := time.NewTicker(bufferSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-eb.stop:
			return
		case <-ticker.C:
			eb.sweep()
		}
	}
}

// sweep forgets rooms whose newest event has expired.
func (eb *EventBuffer) sweep() {
	cutoff := eb.now().Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for room, buf := range eb.events {
		if len(buf) == 0 || buf[len(buf)-1].Time.Before(cutoff) {
			delete(eb.events, room)
		}
	}
}

// Append stores evt, trimming expired and excess entries.
func (eb *EventBuffer) Append(evt *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	buf := eb.events[evt.Room]

	cutoff := eb.now().Add(-eb.maxAge)
	start := 0
	for start < len(buf) && buf[start].Time.Before(cutoff) {
		start++
	}

	buf = append(buf[start:], *evt)
	if len(buf) > eb.maxLen {
		buf = buf[len(buf)-eb.maxLen:]
	}

	eb.events[evt.Room] = buf
}

// Since returns a copy of the room's events with an id above lastID.
func (eb *EventBuffer) Since(room string, lastID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.events[room]
	i := sort.Search(len(buf), func(i int) bool { return buf[i].ID > lastID })
	if i >= len(buf) {
		return nil
	}

	out := make([]Event, len(buf)-i)
	copy(out, buf[i:])

	return out
}

// OldestID returns the oldest buffered id for room, or 0.
func (eb *EventBuffer) OldestID(room string) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if buf := eb.events[room]; len(buf) > 0 {
		return buf[0].ID
	}

	return 0
}
