package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/persistorai/mindmap/internal/api"
	"github.com/persistorai/mindmap/internal/middleware"
	"github.com/persistorai/mindmap/internal/models"
	"github.com/persistorai/mindmap/internal/viewer"
	"github.com/persistorai/mindmap/internal/ws"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	hub := ws.NewHub(testLogger())
	go hub.Run(ctx)

	gallery := &mockGalleryService{
		getFn: func(_ context.Context, id string) (*models.GalleryEntry, error) {
			if id != "map-1" {
				return nil, models.ErrGalleryNotFound
			}

			return sampleEntry(t, id), nil
		},
	}
	quiz := &mockQuizService{
		statsFn: func(context.Context, string) (map[string]models.QuizStat, error) {
			return map[string]models.QuizStat{}, nil
		},
	}

	srv := httptest.NewServer(api.NewRouter(ctx, &api.RouterDeps{
		Log:         testLogger(),
		Hub:         hub,
		Graphs:      &mockGraphService{},
		Gallery:     gallery,
		Quiz:        quiz,
		CORSOrigins: []string{"http://localhost:5173"},
		Version:     "test",
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return srv
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/gallery", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}
}

type frameMsg struct {
	Type string        `json:"type"`
	Data viewer.Update `json:"data"`
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frameMsg {
	t.Helper()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}

		var msg frameMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding %s: %v", data, err)
		}

		if msg.Type == ws.TypeFrame && msg.Data.Frame != nil {
			return msg
		}
	}
}

func TestRouter_LiveViewer(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?graph=map-1"

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow() //nolint:errcheck // test teardown

	first := readFrame(t, ctx, conn)
	if got := len(first.Data.Frame.Nodes); got != 3 {
		t.Fatalf("initial frame has %d nodes, want 3", got)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"search","term":"rust"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for {
		f := readFrame(t, ctx, conn)
		if f.Data.Frame.Filtered && len(f.Data.Frame.Nodes) == 1 {
			break
		}
	}
}

func TestRouter_LiveViewerUnknownGraph(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?graph=missing"

	_, resp, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("dial to an unknown graph must fail")
	}

	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v", resp)
	}
}
