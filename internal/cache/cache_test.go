package cache_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/cache"
	"github.com/persistorai/mindmap/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func TestCache_GraphRoundTrip(t *testing.T) {
	c := cache.New(1<<20, 0, testLogger())

	var g models.Graph
	if err := json.Unmarshal([]byte(`{"nodes":[{"id":1,"label":"A"}],"links":[],"transcript":"t"}`), &g); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Graph("h"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.SetGraph("h", &g)

	got, ok := c.Graph("h")
	if !ok {
		t.Fatal("expected hit")
	}

	if got.Nodes[0].Label != "A" || got.Transcript() != "t" {
		t.Errorf("cached graph = %+v", got)
	}

	c.Invalidate("gallery", "h")
	if _, ok := c.Graph("h"); !ok {
		t.Error("gallery change must not evict graph entries")
	}

	c.Invalidate("graph_cache", "h")
	if _, ok := c.Graph("h"); ok {
		t.Error("graph_cache change must evict the entry")
	}
}

func TestCache_TextAndOversize(t *testing.T) {
	c := cache.New(1<<20, 0, testLogger())

	c.SetText("doc", "hello")
	if got, ok := c.Text("doc"); !ok || got != "hello" {
		t.Errorf("Text() = %q, %v", got, ok)
	}

	// Larger than 1/1024 of the cache: freecache refuses it.
	c.SetText("big", strings.Repeat("x", 4096))
	if _, ok := c.Text("big"); ok {
		t.Error("oversized value should not be cached")
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
