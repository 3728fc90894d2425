package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestServer serves the given routes and points HOME at an empty dir so
// no real config file is read.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) string {
	t.Helper()
	resetFlags(t)
	writeConfigFile(t, "")
	t.Setenv("MINDMAP_URL", "")

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body) //nolint:errcheck
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

const entryJSON = `{"id":"g1","title":"Python","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z",` +
	`"tags":["lang","web"],"graph":{"nodes":[{"id":1,"label":"Python","weight":3},{"id":2,"label":"Django","weight":1}],` +
	`"links":[{"source":1,"target":2,"weight":1,"relation":"framework"}]}}`

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"gallery get needs id", []string{"gallery", "get"}},
		{"gallery rename needs label", []string{"gallery", "rename", "g1"}},
		{"gallery tags too many", []string{"gallery", "tags", "g1", "a", "b"}},
		{"quiz record needs node", []string{"quiz", "record", "g1"}},
		{"graph store needs two files", []string{"graph", "store", "t.txt"}},
		{"upload needs file", []string{"upload"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetFlags(t)
			if err := executeArgs(t, newRootCmd(), tc.args...); err == nil {
				t.Error("expected argument error")
			}
		})
	}
}

func TestRenameRequest(t *testing.T) {
	req, err := renameRequest("", "1-2", "uses")
	if err != nil {
		t.Fatalf("renameRequest() error: %v", err)
	}
	if req.Kind != "edge" || req.Source != "1" || req.Target != "2" || req.Label != "uses" {
		t.Errorf("unexpected edge request %+v", req)
	}

	req, err = renameRequest("7", "", "Go")
	if err != nil || req.Kind != "node" || req.ID != "7" {
		t.Errorf("unexpected node request %+v, err %v", req, err)
	}

	for _, bad := range [][2]string{{"", ""}, {"1", "1-2"}, {"", "12"}, {"", "-2"}} {
		if _, err := renameRequest(bad[0], bad[1], "x"); err == nil {
			t.Errorf("renameRequest(%q, %q) should fail", bad[0], bad[1])
		}
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	url := newTestServer(t, nil)

	path := t.TempDir() + "/notes.txt"
	if err := writeFile(path, "plain"); err != nil {
		t.Fatal(err)
	}

	err := executeArgs(t, newRootCmd(), "--url", url, "upload", path)
	if err == nil || !strings.Contains(err.Error(), "unsupported document type") {
		t.Errorf("expected unsupported type error, got %v", err)
	}
}

func TestGalleryListTable(t *testing.T) {
	url := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/gallery": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("tag") != "lang" {
				writeJSON(w, 400, `{"code":"invalid_request","message":"tag"}`)
				return
			}
			writeJSON(w, 200, `{"entries":[`+entryJSON+`],"has_more":false}`)
		},
	})

	var err error
	got := captureStdout(t, func() {
		err = executeArgs(t, newRootCmd(), "--url", url, "--format", "table", "gallery", "list", "--tag", "lang")
	})
	if err != nil {
		t.Fatalf("gallery list error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, separator and one row, got:\n%s", got)
	}
	for _, want := range []string{"g1", "Python", "2", "lang,web"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("row missing %q: %s", want, lines[2])
		}
	}
}

func TestGalleryDeleteQuiet(t *testing.T) {
	deleted := false
	url := newTestServer(t, map[string]http.HandlerFunc{
		"DELETE /api/v1/gallery/g1": func(w http.ResponseWriter, _ *http.Request) {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		},
	})

	var err error
	got := captureStdout(t, func() {
		err = executeArgs(t, newRootCmd(), "--url", url, "--format", "quiet", "gallery", "delete", "g1")
	})
	if err != nil {
		t.Fatalf("gallery delete error: %v", err)
	}
	if !deleted || strings.TrimSpace(got) != "g1" {
		t.Errorf("deleted=%v output=%q", deleted, got)
	}
}

func TestGalleryGetNotFound(t *testing.T) {
	url := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/gallery/missing": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 404, `{"code":"not_found","message":"gallery entry not found"}`)
		},
	})

	err := executeArgs(t, newRootCmd(), "--url", url, "gallery", "get", "missing")
	if err == nil || !strings.Contains(err.Error(), "not_found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestQuizStatsTable(t *testing.T) {
	url := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/quiz-stats/g1": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"graph_id":"g1","stats":{"2":{"attempts":2,"correct":0,"label":"Django","accuracy":0},`+
				`"1":{"attempts":4,"correct":4,"label":"Python","accuracy":100}}}`)
		},
	})

	var err error
	got := captureStdout(t, func() {
		err = executeArgs(t, newRootCmd(), "--url", url, "--format", "table", "quiz", "stats", "g1")
	})
	if err != nil {
		t.Fatalf("quiz stats error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got:\n%s", got)
	}
	if !strings.Contains(lines[2], "Python") || !strings.Contains(lines[2], "100%") {
		t.Errorf("rows must be sorted by node id: %s", lines[2])
	}
}

func TestQuizRecordWrong(t *testing.T) {
	var body map[string]any
	url := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/quiz-stats/g1/2": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			writeJSON(w, 200, `{"attempts":1,"correct":0,"label":"Django","accuracy":0}`)
		},
	})

	captureStdout(t, func() {
		if err := executeArgs(t, newRootCmd(), "--url", url, "quiz", "record", "g1", "2", "--label", "Django", "--wrong"); err != nil {
			t.Errorf("quiz record error: %v", err)
		}
	})

	if body["correct"] != false || body["label"] != "Django" {
		t.Errorf("unexpected request body %v", body)
	}
}

func TestGraphHashOffline(t *testing.T) {
	resetFlags(t)
	path := t.TempDir() + "/t.txt"
	if err := writeFile(path, "python talk"); err != nil {
		t.Fatal(err)
	}

	got := captureStdout(t, func() {
		if err := executeArgs(t, newRootCmd(), "graph", "hash", path); err != nil {
			t.Errorf("graph hash error: %v", err)
		}
	})

	if len(strings.TrimSpace(got)) != 64 {
		t.Errorf("expected a sha-256 hex digest, got %q", got)
	}
}
