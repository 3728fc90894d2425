package models_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/persistorai/mindmap/internal/models"
)

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestGraph_RoundTripPreservesExtra(t *testing.T) {
	in := `{"id":"abc","links":[{"source":1,"target":"b","weight":0.8,"relation":"is a"}],` +
		`"nodes":[{"id":1,"label":"Python","weight":5},{"id":"b","label":"Django","weight":3}],` +
		`"transcript":"hello","meta":{"k":[1,2]}}`

	var g models.Graph
	assertNoError(t, json.Unmarshal([]byte(in), &g))

	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("got %d nodes, %d links", len(g.Nodes), len(g.Links))
	}

	if g.Transcript() != "hello" {
		t.Errorf("Transcript() = %q, want hello", g.Transcript())
	}

	if g.ID() != "abc" {
		t.Errorf("ID() = %q, want abc", g.ID())
	}

	out, err := json.Marshal(&g)
	assertNoError(t, err)

	var back map[string]json.RawMessage
	assertNoError(t, json.Unmarshal(out, &back))

	if string(back["meta"]) != `{"k":[1,2]}` {
		t.Errorf("meta = %s, want verbatim", back["meta"])
	}

	if !strings.Contains(string(back["nodes"]), `"id":1,`) {
		t.Errorf("numeric id not preserved: %s", back["nodes"])
	}

	if !strings.Contains(string(back["links"]), `"source":1,"target":"b"`) {
		t.Errorf("link endpoints not preserved: %s", back["links"])
	}
}

func TestGraph_MissingKeysStayNil(t *testing.T) {
	var g models.Graph
	assertNoError(t, json.Unmarshal([]byte(`{"nodes":[]}`), &g))

	if g.Nodes == nil {
		t.Error("present nodes key should decode to empty slice")
	}

	if g.Links != nil {
		t.Error("missing links key should stay nil")
	}
}

func TestNodeID_Identity(t *testing.T) {
	if !models.NumberID(1).Equal(models.StringID("1")) {
		t.Error("1 and \"1\" should address the same node")
	}

	var id models.NodeID
	assertErrorContains(t, json.Unmarshal([]byte(`true`), &id), "string or number")
}

func TestNode_Pinned(t *testing.T) {
	x, y := 5.0, 7.0
	tests := []struct {
		name string
		node models.Node
		want bool
	}{
		{name: "fixed with coords", node: models.Node{Fixed: true, X: &x, Y: &y}, want: true},
		{name: "fixed without coords", node: models.Node{Fixed: true}, want: false},
		{name: "coords not fixed", node: models.Node{X: &x, Y: &y}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.node.Pinned(); got != tc.want {
				t.Errorf("Pinned() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       models.Question
		wantErr string
	}{
		{name: "valid", q: models.Question{Question: "q", Options: []string{"a", "b"}, AnswerIndex: 1}},
		{name: "one option", q: models.Question{Question: "q", Options: []string{"a"}}, wantErr: "at least 2 options"},
		{name: "index out of range", q: models.Question{Question: "q", Options: []string{"a", "b"}, AnswerIndex: 2}, wantErr: "out of range"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestUpsertGalleryRequest_Validate(t *testing.T) {
	g := &models.Graph{Nodes: []*models.Node{{ID: models.NumberID(1), Label: "Python"}}, Links: []*models.Link{}}

	req := models.UpsertGalleryRequest{Graph: g, Tags: []string{" go ", "go", "", "viz"}}
	assertNoError(t, req.Validate())

	if req.Title != "Python" {
		t.Errorf("Title = %q, want first node label", req.Title)
	}

	if strings.Join(req.Tags, ",") != "go,viz" {
		t.Errorf("Tags = %v, want [go viz]", req.Tags)
	}

	missing := models.UpsertGalleryRequest{}
	if err := missing.Validate(); !errors.Is(err, models.ErrMissingGraph) {
		t.Errorf("expected ErrMissingGraph, got %v", err)
	}
}

func TestParseTags(t *testing.T) {
	tags, err := models.ParseTags("science, history ,,science")
	assertNoError(t, err)

	if strings.Join(tags, "|") != "science|history" {
		t.Errorf("ParseTags = %v", tags)
	}

	empty, err := models.ParseTags("  ")
	assertNoError(t, err)

	if len(empty) != 0 {
		t.Errorf("expected no tags, got %v", empty)
	}
}

func TestTranscriptHash(t *testing.T) {
	h := models.TranscriptHash("abc")
	if h != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected hash %s", h)
	}

	assertNoError(t, models.ValidateHash(h))
	assertErrorContains(t, models.ValidateHash("xyz"), "64 lowercase hex")
}

func TestRenameRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RenameRequest
		wantErr string
	}{
		{name: "node", req: models.RenameRequest{Kind: "node", ID: "1", Label: "x"}},
		{name: "edge", req: models.RenameRequest{Kind: "edge", Source: "1", Target: "2", Label: "x"}},
		{name: "edge missing target", req: models.RenameRequest{Kind: "edge", Source: "1", Label: "x"}, wantErr: "id is required"},
		{name: "missing label", req: models.RenameRequest{Kind: "node", ID: "1"}, wantErr: "label is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}
