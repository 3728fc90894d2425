package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Import uploads a browser gallery dump (a JSON array or a localStorage
// object holding galleryMaps) and returns how many entries were stored.
func (s *GalleryService) Import(ctx context.Context, data []byte) (int, error) {
	body, _, err := s.c.send(ctx, http.MethodPost, "/api/v1/gallery/import", "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	var result struct {
		Imported int `json:"imported"`
	}
	if err := decodeJSON(body, &result); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	return result.Imported, nil
}

// Export renders an entry as png, jpg or pdf and writes it to w. It returns
// the content type reported by the server.
func (s *GalleryService) Export(ctx context.Context, id, format string, w io.Writer) (string, error) {
	path := "/api/v1/gallery/" + url.PathEscape(id) + "/export"
	if format != "" {
		path += "?" + url.Values{"format": {format}}.Encode()
	}

	body, contentType, err := s.c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("export: writing output: %w", err)
	}

	return contentType, nil
}
