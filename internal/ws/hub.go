// Package ws serves live graph views over WebSocket. Every connection drives
// its own viewer session; connections looking at the same graph share a room
// that receives change events from the database.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/metrics"
)

// Hub limits and buffer sizes.
const (
	broadcastBuffer     = 256
	registerBuffer      = 64
	maxClients          = 1000
	maxClientsPerRoom   = 50
	maxBroadcastPayload = 4096
	drainTimeout        = 3 * time.Second
	drainPoll           = 50 * time.Millisecond
)

type roomBroadcast struct {
	room string
	msg  []byte
}

// Hub tracks connected clients by room. The client map is only touched by
// the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	roomCount  map[string]int
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomBroadcast
	shutdown   chan struct{}
	done       chan struct{}
	count      atomic.Int64
	log        *logrus.Logger
	seq        *EventSequence
	buffer     *EventBuffer
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		roomCount:  make(map[string]int),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan roomBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		seq:        NewEventSequence(),
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// Run is the hub event loop. It returns after Shutdown or when ctx ends,
// once connected clients have been drained.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.buffer.Stop()

	for {
		select {
		case <-ctx.Done():
			h.drainClients()
			return
		case <-h.shutdown:
			h.drainClients()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			if h.clients[c] {
				h.remove(c)
				h.log.WithFields(logrus.Fields{"room": c.Room, "total": len(h.clients)}).Debug("viewer disconnected")
			}
		case b := <-h.broadcast:
			h.fanOut(b)
		}

		h.count.Store(int64(len(h.clients)))
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) add(c *Client) {
	if len(h.clients) >= maxClients {
		h.log.Warn("global viewer limit reached, dropping client")
		c.closeSend()

		return
	}

	if h.roomCount[c.Room] >= maxClientsPerRoom {
		h.log.WithField("room", c.Room).Warn("room viewer limit reached, dropping client")
		c.closeSend()

		return
	}

	h.clients[c] = true
	h.roomCount[c.Room]++
	h.log.WithFields(logrus.Fields{"room": c.Room, "total": len(h.clients)}).Debug("viewer connected")
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	c.closeSend()

	h.roomCount[c.Room]--
	if h.roomCount[c.Room] <= 0 {
		delete(h.roomCount, c.Room)
	}
}

// fanOut delivers to every client of the room; a client whose buffer is full
// is disconnected.
func (h *Hub) fanOut(b roomBroadcast) {
	for c := range h.clients {
		if c.Room != b.room {
			continue
		}

		if !c.queue(b.msg) {
			h.log.WithField("room", c.Room).Warn("viewer too slow, disconnecting")
			h.remove(c)
		}
	}
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastToRoom queues a raw message for the room. Oversized payloads are
// dropped.
func (h *Hub) BroadcastToRoom(room string, msg []byte) {
	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"room":         room,
			"payload_size": len(msg),
		}).Warn("dropping oversized broadcast payload")

		return
	}

	select {
	case h.broadcast <- roomBroadcast{room: room, msg: msg}:
	default:
		h.log.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastEvent numbers, buffers and broadcasts an event to one room.
func (h *Hub) BroadcastEvent(eventType, room string, data json.RawMessage) {
	if room == "" {
		return
	}

	evt := Event{
		Type: eventType,
		ID:   h.seq.Next(room),
		Room: room,
		Data: data,
		Time: time.Now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	h.buffer.Append(&evt)
	h.BroadcastToRoom(room, msg)
}

// ReplayEvents queues the room events after lastEventID on c. It returns
// false when those events have already been evicted.
func (h *Hub) ReplayEvents(c *Client, lastEventID uint64) bool {
	oldest := h.buffer.OldestID(c.Room)
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest-1 {
		return false
	}

	for _, evt := range h.buffer.Since(c.Room, lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		if !c.queue(msg) {
			break
		}
	}

	return true
}

// Shutdown drains every client and waits for Run to return.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients tells clients the server is going away, waits briefly for
// their queues to flush and then closes them.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining websocket clients")

	bye, _ := json.Marshal(ResetMsg{Type: TypeShutdown, Reason: "server shutting down"}) //nolint:errchkjson // fixed struct.
	for c := range h.clients {
		c.queue(bye)
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for h.pending() {
		select {
		case <-deadline:
			h.log.Warn("websocket drain timed out")
			h.closeAll()

			return
		case <-ticker.C:
		}
	}

	h.closeAll()
}

func (h *Hub) pending() bool {
	for c := range h.clients {
		if len(c.send) > 0 {
			return true
		}
	}

	return false
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}

	h.roomCount = make(map[string]int)
	h.count.Store(0)
	metrics.WSConnections.Set(0)
}
