package api_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/persistorai/mindmap/internal/api"
	"github.com/persistorai/mindmap/internal/extract"
)

func newUploadRouter(ex *mockExtractor) http.Handler {
	h := api.NewUploadHandler(ex, testLogger())
	r := newTestRouter()
	r.POST("/upload-pdf", h.PDF)
	r.POST("/upload-docx", h.DOCX)

	return r
}

func upload(t *testing.T, r http.Handler, path, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}

	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestUploadHandler(t *testing.T) {
	var gotFormat extract.Format

	ex := &mockExtractor{
		fn: func(_ context.Context, format extract.Format, data []byte) (string, error) {
			gotFormat = format
			return "extracted text", nil
		},
	}
	r := newUploadRouter(ex)

	tests := []struct {
		name       string
		path       string
		field      string
		filename   string
		data       []byte
		wantCode   int
		wantFormat extract.Format
	}{
		{"pdf", "/upload-pdf", "file", "talk.pdf", []byte("%PDF-1.4"), http.StatusOK, extract.FormatPDF},
		{"pdf by magic", "/upload-pdf", "file", "blob", []byte("%PDF-1.4"), http.StatusOK, extract.FormatPDF},
		{"docx", "/upload-docx", "file", "talk.docx", []byte("PK\x03\x04"), http.StatusOK, extract.FormatDOCX},
		{"text on pdf route", "/upload-pdf", "file", "notes.txt", []byte("hello"), http.StatusOK, extract.FormatText},
		{"docx on pdf route", "/upload-pdf", "file", "talk.docx", []byte("PK\x03\x04"), http.StatusUnsupportedMediaType, ""},
		{"unknown type", "/upload-docx", "file", "image.png", []byte("\x89PNG"), http.StatusUnsupportedMediaType, ""},
		{"wrong field", "/upload-pdf", "document", "talk.pdf", []byte("%PDF-1.4"), http.StatusBadRequest, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotFormat = ""

			w := upload(t, r, tc.path, tc.field, tc.filename, tc.data)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.wantCode, w.Body)
			}

			if gotFormat != tc.wantFormat {
				t.Errorf("format = %q, want %q", gotFormat, tc.wantFormat)
			}

			if tc.wantCode == http.StatusOK {
				var body map[string]string
				decodeBody(t, w, &body)

				if body["transcript"] != "extracted text" {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}
