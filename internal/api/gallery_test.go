package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/persistorai/mindmap/internal/api"
	"github.com/persistorai/mindmap/internal/export"
	"github.com/persistorai/mindmap/internal/models"
)

func newGalleryRouter(svc *mockGalleryService, graphs *mockGraphService, exporter *mockExporter) http.Handler {
	var (
		gs api.GraphService
		ex api.GraphExporter
	)
	if graphs != nil {
		gs = graphs
	}
	if exporter != nil {
		ex = exporter
	}

	h := api.NewGalleryHandler(svc, gs, ex, testLogger())
	r := newTestRouter()
	r.GET("/gallery", h.List)
	r.POST("/gallery", h.Create)
	r.POST("/gallery/import", h.Import)
	r.GET("/gallery/:id", h.Get)
	r.PUT("/gallery/:id", h.Update)
	r.DELETE("/gallery/:id", h.Delete)
	r.PUT("/gallery/:id/tags", h.SetTags)
	r.POST("/gallery/:id/rename", h.Rename)
	r.GET("/gallery/:id/export", h.Export)

	return r
}

func sampleEntry(t *testing.T, id string) *models.GalleryEntry {
	t.Helper()

	return &models.GalleryEntry{ID: id, Title: "Python", Tags: []string{"web"}, Graph: decodeGraph(t, sampleGraph)}
}

func TestGalleryHandler_List(t *testing.T) {
	var got models.GalleryQuery

	svc := &mockGalleryService{
		listFn: func(_ context.Context, q models.GalleryQuery) ([]models.GalleryEntry, bool, error) {
			got = q
			return nil, true, nil
		},
	}

	w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodGet, "/gallery?search=py&tag=web&limit=9999&offset=-3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if got.Search != "py" || got.Tag != "web" || got.Limit != 500 || got.Offset != 0 {
		t.Errorf("query = %+v", got)
	}

	var body struct {
		Entries []models.GalleryEntry `json:"entries"`
		HasMore bool                  `json:"has_more"`
	}
	decodeBody(t, w, &body)

	if body.Entries == nil || !body.HasMore {
		t.Errorf("body = %s", w.Body)
	}
}

func TestGalleryHandler_CreateDefaultsTitle(t *testing.T) {
	var got models.UpsertGalleryRequest

	svc := &mockGalleryService{
		saveFn: func(_ context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
			got = req
			return &models.GalleryEntry{ID: "new", Title: req.Title, Graph: req.Graph}, nil
		},
	}

	body := fmt.Sprintf(`{"tags":["web"," web ","ml"],"graph":%s}`, sampleGraph)
	w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodPost, "/gallery", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	if got.Title != "Python" {
		t.Errorf("title = %q, want first node label", got.Title)
	}

	if strings.Join(got.Tags, ",") != "web,ml" {
		t.Errorf("tags = %v", got.Tags)
	}

	if w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodPost, "/gallery", `{"title":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing graph: status = %d", w.Code)
	}
}

func TestGalleryHandler_UpdateUsesPathID(t *testing.T) {
	var gotID string

	svc := &mockGalleryService{
		saveFn: func(_ context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
			gotID = req.ID
			return &models.GalleryEntry{ID: req.ID}, nil
		},
	}

	body := fmt.Sprintf(`{"id":"ignored","title":"T","graph":%s}`, sampleGraph)
	w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodPut, "/gallery/map-9", body)

	if w.Code != http.StatusOK || gotID != "map-9" {
		t.Errorf("status = %d id = %q", w.Code, gotID)
	}
}

func TestGalleryHandler_GetAndDeleteNotFound(t *testing.T) {
	svc := &mockGalleryService{
		deleteFn: func(context.Context, string) error { return models.ErrGalleryNotFound },
	}
	r := newGalleryRouter(svc, nil, nil)

	if w := doRequest(r, http.MethodGet, "/gallery/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("get: status = %d", w.Code)
	}

	w := doRequest(r, http.MethodDelete, "/gallery/nope", "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != api.ErrCodeNotFound {
		t.Errorf("delete: status = %d body = %s", w.Code, w.Body)
	}
}

func TestGalleryHandler_Delete(t *testing.T) {
	svc := &mockGalleryService{deleteFn: func(context.Context, string) error { return nil }}

	if w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodDelete, "/gallery/map-1", ""); w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGalleryHandler_SetTags(t *testing.T) {
	svc := &mockGalleryService{
		setTagsFn: func(_ context.Context, id string, req models.SetTagsRequest) (*models.GalleryEntry, error) {
			tags, err := req.Resolve()
			if err != nil {
				return nil, err
			}

			return &models.GalleryEntry{ID: id, Tags: tags}, nil
		},
	}

	w := doRequest(newGalleryRouter(svc, nil, nil), http.MethodPut, "/gallery/map-1/tags", `{"raw":"web, python ,,web"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var e models.GalleryEntry
	decodeBody(t, w, &e)
	if strings.Join(e.Tags, ",") != "web,python" {
		t.Errorf("tags = %v", e.Tags)
	}

	long := strings.Repeat("x", 65)
	w = doRequest(newGalleryRouter(svc, nil, nil), http.MethodPut, "/gallery/map-1/tags", `{"raw":"`+long+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("overlong tag: status = %d", w.Code)
	}
}

func TestGalleryHandler_Import(t *testing.T) {
	svc := &mockGalleryService{
		importFn: func(_ context.Context, data []byte) (int, error) {
			if !strings.HasPrefix(string(data), "[") {
				return 0, errors.New("boom")
			}

			return 2, nil
		},
	}
	r := newGalleryRouter(svc, nil, nil)

	w := doRequest(r, http.MethodPost, "/gallery/import", `[{},{}]`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"imported":2`) {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}

	if w := doRequest(r, http.MethodPost, "/gallery/import", `{}`); w.Code != http.StatusInternalServerError {
		t.Errorf("service failure: status = %d", w.Code)
	}
}

func TestGalleryHandler_Export(t *testing.T) {
	svc := &mockGalleryService{
		getFn: func(_ context.Context, id string) (*models.GalleryEntry, error) { return sampleEntry(t, id), nil },
	}

	var gotFormat export.Format

	exporter := &mockExporter{
		fn: func(_ context.Context, g *models.Graph, f export.Format, w io.Writer) error {
			gotFormat = f
			_, err := w.Write([]byte("%PDF-1.3 fake"))
			return err
		},
	}
	r := newGalleryRouter(svc, nil, exporter)

	w := doRequest(r, http.MethodGet, "/gallery/map-1/export?format=pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	if gotFormat != export.FormatPDF || w.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("format = %s content-type = %s", gotFormat, w.Header().Get("Content-Type"))
	}

	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "graph.pdf") {
		t.Errorf("content-disposition = %q", cd)
	}

	if w := doRequest(r, http.MethodGet, "/gallery/map-1/export?format=gif", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad format: status = %d", w.Code)
	}

	exporter.fn = func(context.Context, *models.Graph, export.Format, io.Writer) error { return export.ErrBlankRender }
	w = doRequest(r, http.MethodGet, "/gallery/map-1/export", "")
	if w.Code != http.StatusInternalServerError || errorCode(t, w) != api.ErrCodeRenderFailed {
		t.Errorf("blank render: status = %d body = %s", w.Code, w.Body)
	}
}

func TestGalleryHandler_ExportDisabled(t *testing.T) {
	w := doRequest(newGalleryRouter(&mockGalleryService{}, nil, nil), http.MethodGet, "/gallery/map-1/export", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGalleryHandler_Rename(t *testing.T) {
	var (
		saved    models.UpsertGalleryRequest
		recached *models.Graph
	)

	svc := &mockGalleryService{
		getFn: func(_ context.Context, id string) (*models.GalleryEntry, error) { return sampleEntry(t, id), nil },
		saveFn: func(_ context.Context, req models.UpsertGalleryRequest) (*models.GalleryEntry, error) {
			saved = req
			return &models.GalleryEntry{ID: req.ID, Title: req.Title, Graph: req.Graph}, nil
		},
	}
	graphs := &mockGraphService{
		storeFn: func(_ context.Context, transcript string, g *models.Graph) (*models.Graph, error) {
			recached = g
			return g, nil
		},
	}
	r := newGalleryRouter(svc, graphs, nil)

	w := doRequest(r, http.MethodPost, "/gallery/map-1/rename", `{"kind":"edge","source":"1","target":"2","label":"powers"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	if saved.Graph.Links[0].Relation != "powers" || saved.Title != "Python" || saved.ID != "map-1" {
		t.Errorf("saved = %+v", saved)
	}

	if recached == nil || recached.Links[0].Relation != "powers" {
		t.Error("renamed graph with a transcript must be re-cached")
	}

	w = doRequest(r, http.MethodPost, "/gallery/map-1/rename", `{"kind":"node","id":"42","label":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown node: status = %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/gallery/map-1/rename", `{"kind":"node","id":"1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing label: status = %d", w.Code)
	}
}
