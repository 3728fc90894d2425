package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const uploadField = "file"

// DocumentService converts uploaded documents to transcript text.
type DocumentService struct {
	c *Client
}

// UploadPDF sends a PDF and returns its text.
func (s *DocumentService) UploadPDF(ctx context.Context, filename string, r io.Reader) (string, error) {
	return s.upload(ctx, "/api/v1/upload-pdf", filename, r)
}

// UploadDOCX sends a Word document and returns its text.
func (s *DocumentService) UploadDOCX(ctx context.Context, filename string, r io.Reader) (string, error) {
	return s.upload(ctx, "/api/v1/upload-docx", filename, r)
}

func (s *DocumentService) upload(ctx context.Context, path, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(uploadField, filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	body, _, err := s.c.send(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var resp struct {
		Transcript string `json:"transcript"`
	}
	if err := decodeJSON(body, &resp); err != nil {
		return "", err
	}
	return resp.Transcript, nil
}
