package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

type failingGenerator struct {
	calls atomic.Int32
	err   error
}

func (f *failingGenerator) Name() string { return "failing" }

func (f *failingGenerator) Generate(context.Context, string) (*models.Graph, error) {
	f.calls.Add(1)
	return nil, f.err
}

func TestSanitize(t *testing.T) {
	var g models.Graph
	raw := `{"nodes":[{"id":1,"label":"A","quiz":[{"question":"q","options":["x"],"answer_index":0}]},` +
		`{"id":1,"label":"dup"},{"id":2,"label":"B"}],` +
		`"links":[{"source":1,"target":2,"relation":"r"},{"source":1,"target":9,"relation":"dangling"}]}`
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatal(err)
	}

	out, err := Sanitize(&g)
	if err != nil {
		t.Fatalf("Sanitize() error: %v", err)
	}

	if len(out.Nodes) != 2 || out.Nodes[0].Label != "A" {
		t.Errorf("nodes = %d, first %q", len(out.Nodes), out.Nodes[0].Label)
	}

	if len(out.Links) != 1 {
		t.Errorf("links = %d, want 1", len(out.Links))
	}

	if out.Nodes[0].Quiz != nil {
		t.Error("invalid question kept")
	}
}

func TestStubGenerator(t *testing.T) {
	g, err := StubGenerator{}.Generate(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Sanitize(g); err != nil {
		t.Errorf("stub graph is not valid: %v", err)
	}

	if g.Nodes[1].Label != "Django" || g.Links[0].Relation != "is a Python framework" {
		t.Errorf("unexpected stub graph: %+v", g.Links[0])
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain", `{"nodes":[],"links":[]}`},
		{"fenced", "```json\n{\"nodes\":[],\"links\":[]}\n```"},
		{"double encoded", `"{\"nodes\":[],\"links\":[]}"`},
		{"trailing comma", `{"nodes":[],"links":[],}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out generatedGraph
			if err := unmarshalFlexible(tc.input, &out); err != nil {
				t.Errorf("unmarshalFlexible() error: %v", err)
			}
		})
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	f := &failingGenerator{err: errors.New("boom")}
	b := NewBreaker(f, time.Second, testLogger())

	for range 3 {
		if _, err := b.Generate(context.Background(), "t"); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected backend error, got %v", err)
		}
	}

	_, err := b.Generate(context.Background(), "t")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once open, got %v", err)
	}

	if f.calls.Load() != 3 {
		t.Errorf("backend called %d times, want 3", f.calls.Load())
	}

	if b.State() != "open" {
		t.Errorf("State() = %s", b.State())
	}
}

func TestBreaker_SanitizesOutput(t *testing.T) {
	b := NewBreaker(StubGenerator{}, 0, testLogger())

	g, err := b.Generate(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}

	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %d", len(g.Nodes))
	}
}

func TestOpenAIGenerator_StructuredOutput(t *testing.T) {
	content := `{"nodes":[{"id":1,"label":"Go","weight":4,"summary":"s","quiz":[]},` +
		`{"id":2,"label":"Goroutine","weight":2,"summary":"s","quiz":[]}],` +
		`"links":[{"source":1,"target":2,"weight":0.5,"relation":"has"}]}`

	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}

		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		msg, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[` +
			`{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(msg) + `}}]}`))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1/", Model: "test-model"})

	g, err := gen.Generate(context.Background(), "a talk about go")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if len(g.Nodes) != 2 || g.Links[0].Relation != "has" {
		t.Errorf("graph = %+v", g)
	}

	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}

	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}

	id, _ := json.Marshal(g.Nodes[0].ID)
	if string(id) != "1" {
		t.Errorf("node id encoded as %s, want numeric", id)
	}
}
