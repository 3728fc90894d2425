package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

const sampleGraph = `{"nodes":[` +
	`{"id":1,"label":"Python","weight":5,"summary":"A language"},` +
	`{"id":2,"label":"Django","weight":3},` +
	`{"id":3,"label":"Rust","weight":2}],` +
	`"links":[{"source":1,"target":2,"weight":0.8,"relation":"is a Python framework"}],` +
	`"transcript":"python talk"}`

var sampleHash = models.TranscriptHash("python talk")

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func newTestRouter() *gin.Engine {
	return gin.New()
}

func decodeGraph(t *testing.T, raw string) *models.Graph {
	t.Helper()

	var g models.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decoding graph: %v", err)
	}

	return &g
}

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	decodeBody(t, w, &body)

	return body["code"]
}
