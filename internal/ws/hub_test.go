package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func startHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recv(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}

		var evt Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("decoding event: %v", err)
		}

		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	return Event{}
}

func TestHub_BroadcastStaysInRoom(t *testing.T) {
	h := startHub(t)

	a := NewClient(h, nil, "graph-a")
	b := NewClient(h, nil, "graph-b")
	h.Register(a)
	h.Register(b)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.BroadcastEvent("graph.saved", "graph-a", json.RawMessage(`{"id":"graph-a"}`))

	evt := recv(t, a)
	if evt.Type != "graph.saved" || evt.ID != 1 {
		t.Errorf("event = %+v", evt)
	}

	select {
	case msg := <-b.send:
		t.Errorf("other room received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomLimit(t *testing.T) {
	h := startHub(t)

	for range maxClientsPerRoom {
		h.Register(NewClient(h, nil, "busy"))
	}
	waitFor(t, func() bool { return h.ClientCount() == maxClientsPerRoom })

	extra := NewClient(h, nil, "busy")
	h.Register(extra)

	select {
	case _, ok := <-extra.send:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client over the room limit was not dropped")
	}

	other := NewClient(h, nil, "quiet")
	h.Register(other)
	waitFor(t, func() bool { return h.ClientCount() == maxClientsPerRoom+1 })
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)

	c := NewClient(h, nil, "g")
	h.Register(c)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Unregister(c)
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	if c.queue([]byte("late")) {
		t.Error("queue after unregister must fail")
	}
}

func TestHub_ReplayEvents(t *testing.T) {
	h := startHub(t)

	for range 3 {
		h.BroadcastEvent("gallery.updated", "g", json.RawMessage(`{}`))
	}

	c := NewClient(h, nil, "g")
	if !h.ReplayEvents(c, 1) {
		t.Fatal("replay refused")
	}

	if got := recv(t, c).ID; got != 2 {
		t.Errorf("first replayed id = %d, want 2", got)
	}

	if got := recv(t, c).ID; got != 3 {
		t.Errorf("second replayed id = %d, want 3", got)
	}
}

func TestHub_ReplayTooOld(t *testing.T) {
	h := NewHub(testLogger())
	h.buffer.Stop()
	h.buffer = NewEventBuffer(2, time.Hour)
	defer h.buffer.Stop()

	for range 4 {
		h.BroadcastEvent("graph.saved", "g", json.RawMessage(`{}`))
	}

	c := NewClient(h, nil, "g")
	if h.ReplayEvents(c, 1) {
		t.Error("replay from an evicted id must ask for a reset")
	}

	if !h.ReplayEvents(c, 2) {
		t.Error("replay from the id just before the oldest must succeed")
	}
}

func TestHub_EmptyRoomIgnored(t *testing.T) {
	h := NewHub(testLogger())
	defer h.buffer.Stop()

	h.BroadcastEvent("graph.saved", "", json.RawMessage(`{}`))

	if len(h.broadcast) != 0 {
		t.Error("event without a room must not be queued")
	}
}

func TestHub_OversizedPayloadDropped(t *testing.T) {
	h := NewHub(testLogger())
	defer h.buffer.Stop()

	h.BroadcastToRoom("g", make([]byte, maxBroadcastPayload+1))

	if len(h.broadcast) != 0 {
		t.Error("oversized payload must be dropped")
	}
}

func TestEventBuffer_ExpiresOldEvents(t *testing.T) {
	eb := NewEventBuffer(10, time.Minute)
	defer eb.Stop()

	now := time.Unix(1000, 0)
	eb.now = func() time.Time { return now }

	eb.Append(&Event{ID: 1, Room: "g", Time: now})
	now = now.Add(2 * time.Minute)
	eb.Append(&Event{ID: 2, Room: "g", Time: now})

	if got := eb.OldestID("g"); got != 2 {
		t.Errorf("OldestID = %d, want 2", got)
	}

	now = now.Add(2 * time.Minute)
	eb.sweep()

	if got := eb.Since("g", 0); got != nil {
		t.Errorf("expired room still buffered: %v", got)
	}
}
