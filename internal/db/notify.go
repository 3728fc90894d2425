package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/dbpool"
)

const (
	// ListenChannel is the channel the mindmap_notify trigger publishes on.
	ListenChannel = "mindmap_changes"

	initialBackoff    = 1 * time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 2
)

// Event types forwarded to live viewers.
const (
	EventGraphSaved     = "graph.saved"
	EventGalleryUpdated = "gallery.updated"
	EventGalleryDeleted = "gallery.deleted"
)

// Change is one row change published by the database trigger.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// EventType maps the change to the event sent to viewers.
func (c Change) EventType() string {
	switch {
	case c.Table == "graph_cache":
		return EventGraphSaved
	case c.Op == "delete":
		return EventGalleryDeleted
	default:
		return EventGalleryUpdated
	}
}

// ParseChange decodes a notification payload.
func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("decoding change: %w", err)
	}

	if c.ID == "" || (c.Table != "graph_cache" && c.Table != "gallery") {
		return Change{}, fmt.Errorf("unexpected change %q on %q", c.ID, c.Table)
	}

	return c, nil
}

// Invalidator drops cached copies of changed rows.
type Invalidator interface {
	Invalidate(table, id string)
}

// Broadcaster sends events to the viewers of one graph.
type Broadcaster interface {
	BroadcastEvent(eventType, room string, data json.RawMessage)
}

// NotifyBridge listens on mindmap_changes so that every server instance
// sharing the database drops stale cache entries and tells its live viewers
// about writes made elsewhere.
type NotifyBridge struct {
	log   *logrus.Logger
	pool  *dbpool.Pool
	cache Invalidator
	hub   Broadcaster
}

// NewNotifyBridge creates a NotifyBridge. cache and hub may be nil.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, cache Invalidator, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{log: log, pool: pool, cache: cache, hub: hub}
}

// Start verifies the database is reachable and then listens in the
// background, reconnecting with backoff until ctx is cancelled.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.listen(ctx)

	return nil
}

func (b *NotifyBridge) listen(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		err := b.subscribe(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		b.log.WithError(err).WithFields(logrus.Fields{
			"action":   "notify.reconnect",
			"retry_in": backoff,
		}).Warn("notify bridge connection lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

func (b *NotifyBridge) subscribe(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ListenChannel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", ListenChannel).Info("notify bridge listening")

	for {
		// Wake up periodically so a dead peer is noticed.
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(2 * time.Minute)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		b.handle(n)
	}
}

func (b *NotifyBridge) handle(n *pgconn.Notification) {
	c, err := ParseChange(n.Payload)
	if err != nil {
		b.log.WithError(err).WithField("pid", n.PID).Warn("dropping notification")
		return
	}

	b.log.WithFields(logrus.Fields{
		"action": "notify.change",
		"table":  c.Table,
		"op":     c.Op,
		"id":     c.ID,
	}).Debug("change received")

	if b.cache != nil {
		b.cache.Invalidate(c.Table, c.ID)
	}

	if b.hub != nil {
		b.hub.BroadcastEvent(c.EventType(), c.ID, json.RawMessage(n.Payload))
	}
}

// nextBackoff doubles the backoff with ±25% jitter, capped at maxBackoff.
func nextBackoff(current time.Duration) time.Duration {
	next := min(current*backoffMultiplier, maxBackoff)

	jitter := float64(next) * (0.75 + rand.Float64()*0.5) //nolint:gosec // jitter doesn't need crypto rand.

	return time.Duration(jitter)
}
