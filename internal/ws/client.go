package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/viewer"
)

const (
	writeTimeout     = 10 * time.Second
	postTimeout      = 2 * time.Second
	wsReadLimit      = 1 << 20
	clientSendBuffer = 64
	frameBuffer      = 4
	maxConnLifetime  = 4 * time.Hour
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = int32(2)
)

// Session is the viewer driven by one connection.
type Session interface {
	Run(ctx context.Context) error
	Post(ctx context.Context, in viewer.Input) error
}

// Client is one WebSocket connection. Room is the id of the graph it views.
type Client struct {
	Room        string
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	frames      chan []byte
	log         *logrus.Logger
	mu          sync.Mutex
	closed      bool
	connectedAt time.Time
}

// NewClient wraps conn for the given room.
func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		Room:        room,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, clientSendBuffer),
		frames:      make(chan []byte, frameBuffer),
		log:         hub.log,
		connectedAt: time.Now(),
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// queue offers msg to the send buffer without blocking.
func (c *Client) queue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) queueJSON(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal message")
		return
	}

	c.queue(msg)
}

// Deliver queues a frame update. When the writer falls behind the oldest
// pending frame is discarded; only the newest state matters.
func (c *Client) Deliver(u viewer.Update) {
	msg, err := json.Marshal(struct {
		Type string        `json:"type"`
		Data viewer.Update `json:"data"`
	}{TypeFrame, u})
	if err != nil {
		c.log.WithError(err).Error("failed to marshal frame")
		return
	}

	for {
		select {
		case c.frames <- msg:
			return
		default:
		}

		select {
		case <-c.frames:
		default:
		}
	}
}

// Serve runs the session and both pumps until the peer goes away or ctx
// ends. It returns once all three have stopped.
func (c *Client) Serve(ctx context.Context, s Session) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		c.WritePump(ctx)
	}()

	go func() {
		defer wg.Done()
		defer cancel()

		if err := s.Run(ctx); err != nil {
			c.log.WithError(err).WithField("room", c.Room).Warn("viewer session failed")
		}
	}()

	c.ReadPump(ctx, s)
	cancel()
	wg.Wait()
}

// ReadPump feeds client messages to s until the connection closes.
func (c *Client) ReadPump(ctx context.Context, s Session) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}

		if !c.handleMessage(ctx, s, data) {
			return
		}
	}
}

// handleMessage dispatches one client message. It returns false when the
// session is gone.
func (c *Client) handleMessage(ctx context.Context, s Session, data []byte) bool {
	var head struct {
		Type        string `json:"type"`
		LastEventID uint64 `json:"last_event_id"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
		c.queueJSON(ErrorMsg{Type: TypeError, Message: "message must be a JSON object with a type"})
		return true
	}

	if head.Type == TypeSubscribe {
		if !c.hub.ReplayEvents(c, head.LastEventID) {
			c.queueJSON(ResetMsg{Type: TypeReset, Reason: "requested events no longer available, reload the graph"})
		}

		return true
	}

	var in viewer.Input
	if err := json.Unmarshal(data, &in); err != nil {
		c.queueJSON(ErrorMsg{Type: TypeError, Message: "invalid input: " + err.Error()})
		return true
	}

	postCtx, cancel := context.WithTimeout(ctx, postTimeout)
	err := s.Post(postCtx, in)
	cancel()

	switch {
	case err == nil:
		return true
	case errors.Is(err, viewer.ErrSessionClosed), ctx.Err() != nil:
		return false
	default:
		c.log.WithError(err).WithField("room", c.Room).Warn("viewer input dropped")
		return true
	}
}

func (c *Client) sendPing(ctx context.Context, missed *atomic.Int32) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.conn.Ping(pingCtx)
	cancel()

	if err == nil {
		missed.Store(0)
		return false
	}

	return missed.Add(1) >= maxMissedPongs
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.conn.Write(writeCtx, websocket.MessageText, msg)
}

// WritePump writes room events and frames to the connection.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetime := time.NewTimer(time.Until(c.connectedAt.Add(maxConnLifetime)))
	defer lifetime.Stop()

	pings := time.NewTicker(pingInterval)
	defer pings.Stop()

	var missed atomic.Int32

	for {
		var msg []byte

		select {
		case <-ctx.Done():
			return
		case <-pings.C:
			if c.sendPing(ctx, &missed) {
				c.log.Debug("closing: missed pongs")
				return
			}

			continue
		case m, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "closed by server") //nolint:errcheck // best-effort
				return
			}

			msg = m
		case msg = <-c.frames:
		case <-lifetime.C:
			c.log.Info("closing websocket: max connection lifetime exceeded")
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort

			return
		}

		if err := c.write(ctx, msg); err != nil {
			c.log.WithError(err).Debug("write failed")
			return
		}
	}
}
