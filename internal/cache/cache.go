// Package cache keeps hot graphs and extracted document text in a bounded
// in-process cache in front of PostgreSQL.
package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/coocood/freecache"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

const (
	graphPrefix = "graph:"
	textPrefix  = "text:"
)

// Cache wraps a freecache.Cache with typed accessors. It is safe for
// concurrent use.
type Cache struct {
	fc  *freecache.Cache
	ttl int
	log *logrus.Logger
}

// New creates a cache of sizeBytes (freecache enforces a 512KB minimum).
// Entries expire after ttl; zero keeps them until evicted.
func New(sizeBytes int, ttl time.Duration, log *logrus.Logger) *Cache {
	return &Cache{
		fc:  freecache.NewCache(sizeBytes),
		ttl: int(ttl / time.Second),
		log: log,
	}
}

// Graph returns the cached graph for a transcript hash.
func (c *Cache) Graph(hash string) (*models.Graph, bool) {
	data, err := c.fc.Get([]byte(graphPrefix + hash))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			c.log.WithError(err).WithField("hash", hash).Warn("cache read failed")
		}

		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

		return nil, false
	}

	var g models.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		c.log.WithError(err).WithField("hash", hash).Warn("dropping undecodable cache entry")
		c.fc.Del([]byte(graphPrefix + hash))
		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()

	return &g, true
}

// SetGraph caches g under hash. Graphs larger than a freecache segment
// allows are skipped.
func (c *Cache) SetGraph(hash string, g *models.Graph) {
	data, err := json.Marshal(g)
	if err != nil {
		c.log.WithError(err).Warn("encoding graph for cache")
		return
	}

	c.set(graphPrefix+hash, data)
}

// Text returns cached extracted text for a document key.
func (c *Cache) Text(key string) (string, bool) {
	data, err := c.fc.Get([]byte(textPrefix + key))
	if err != nil {
		return "", false
	}

	return string(data), true
}

// SetText caches extracted document text.
func (c *Cache) SetText(key, text string) {
	c.set(textPrefix+key, []byte(text))
}

func (c *Cache) set(key string, value []byte) {
	if err := c.fc.Set([]byte(key), value, c.ttl); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"key":  key,
			"size": len(value),
		}).Debug("value not cached")
	}
}

// Invalidate drops the entry for a changed database row. It satisfies the
// notify bridge's Invalidator.
func (c *Cache) Invalidate(table, id string) {
	if table == "graph_cache" {
		c.fc.Del([]byte(graphPrefix + id))
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int64 {
	return c.fc.EntryCount()
}

// HitRate returns the share of lookups that hit.
func (c *Cache) HitRate() float64 {
	return c.fc.HitRate()
}
