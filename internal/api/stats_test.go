package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/persistorai/mindmap/internal/api"
	"github.com/persistorai/mindmap/internal/models"
)

func newQuizRouter(svc *mockQuizService) http.Handler {
	h := api.NewQuizHandler(svc, testLogger())
	r := newTestRouter()
	r.GET("/quiz-stats/:graphId", h.Stats)
	r.POST("/quiz-stats/:graphId/:nodeId", h.Record)

	return r
}

func TestQuizHandler_Record(t *testing.T) {
	var gotGraph, gotNode string

	svc := &mockQuizService{
		recordFn: func(_ context.Context, graphID, nodeID string, req models.RecordAttemptRequest) (models.QuizStat, error) {
			gotGraph, gotNode = graphID, nodeID
			return models.QuizStat{Attempts: 4, Correct: 3, Label: req.Label}, nil
		},
	}

	w := doRequest(newQuizRouter(svc), http.MethodPost, "/quiz-stats/g1/7", `{"label":"Python","correct":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var body struct {
		Attempts int     `json:"attempts"`
		Correct  int     `json:"correct"`
		Label    string  `json:"label"`
		Accuracy float64 `json:"accuracy"`
	}
	decodeBody(t, w, &body)

	if gotGraph != "g1" || gotNode != "7" {
		t.Errorf("recorded %s/%s", gotGraph, gotNode)
	}

	if body.Attempts != 4 || body.Label != "Python" || body.Accuracy != 75 {
		t.Errorf("body = %+v", body)
	}

	if w := doRequest(newQuizRouter(svc), http.MethodPost, "/quiz-stats/g1/7", `[`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d", w.Code)
	}
}

func TestQuizHandler_Stats(t *testing.T) {
	svc := &mockQuizService{
		statsFn: func(_ context.Context, graphID string) (map[string]models.QuizStat, error) {
			return map[string]models.QuizStat{"1": {Attempts: 2, Correct: 1, Label: "Python"}}, nil
		},
	}

	w := doRequest(newQuizRouter(svc), http.MethodGet, "/quiz-stats/g1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		GraphID string `json:"graph_id"`
		Stats   map[string]struct {
			Accuracy float64 `json:"accuracy"`
		} `json:"stats"`
	}
	decodeBody(t, w, &body)

	if body.GraphID != "g1" || body.Stats["1"].Accuracy != 50 {
		t.Errorf("body = %s", w.Body)
	}
}
