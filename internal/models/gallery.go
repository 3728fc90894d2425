package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Request limits.
const (
	maxTranscriptLen = 2 << 20
	maxTitleLen      = 500
	maxTags          = 32
	maxTagLen        = 64
	maxLabelLen      = 1000
)

// GalleryEntry is one saved graph.
type GalleryEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []string  `json:"tags"`
	Graph     *Graph    `json:"graph"`
}

// GalleryQuery filters gallery listings.
type GalleryQuery struct {
	Search string
	Tag    string
	Limit  int
	Offset int
}

// UpsertGalleryRequest is the payload for saving a graph to the gallery.
type UpsertGalleryRequest struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
	Graph *Graph   `json:"graph"`
}

// Validate checks the request and fills the title from the first node when empty.
// The id may stay empty; the service assigns one.
func (r *UpsertGalleryRequest) Validate() error {
	if r.Graph == nil {
		return ErrMissingGraph
	}

	if len(r.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if strings.TrimSpace(r.Title) == "" {
		r.Title = r.Graph.Title()
	}

	if len(r.Title) > maxTitleLen {
		return ErrFieldTooLong("title", maxTitleLen)
	}

	tags, err := NormalizeTags(r.Tags)
	if err != nil {
		return err
	}
	r.Tags = tags

	return nil
}

// SetTagsRequest replaces the tags of a gallery entry. Raw is the comma
// separated form typed by users; Tags wins when both are set.
type SetTagsRequest struct {
	Tags []string `json:"tags,omitempty"`
	Raw  string   `json:"raw,omitempty"`
}

// Resolve returns the normalized tag list.
func (r *SetTagsRequest) Resolve() ([]string, error) {
	if r.Tags != nil {
		return NormalizeTags(r.Tags)
	}

	return ParseTags(r.Raw)
}

// ParseTags splits a comma separated tag string.
func ParseTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}

	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims, drops empties and de-duplicates while keeping order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}

		if len(t) > maxTagLen {
			return nil, ErrFieldTooLong("tag", maxTagLen)
		}

		seen[t] = true
		out = append(out, t)
	}

	if len(out) > maxTags {
		return nil, ErrFieldTooLong("tags", maxTags)
	}

	return out, nil
}

// ExtractRequest asks for a graph generated from a transcript.
type ExtractRequest struct {
	Transcript string `json:"transcript"`
}

// Validate checks ExtractRequest fields.
func (r *ExtractRequest) Validate() error {
	return validateTranscript(r.Transcript)
}

// StoreGraphRequest stores or re-caches a graph under its transcript hash.
// A request without a graph behaves like ExtractRequest.
type StoreGraphRequest struct {
	Transcript string `json:"transcript"`
	Graph      *Graph `json:"graph,omitempty"`
}

// Validate checks StoreGraphRequest fields.
func (r *StoreGraphRequest) Validate() error {
	return validateTranscript(r.Transcript)
}

// RenameRequest renames one node label or one edge relation.
type RenameRequest struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Label  string `json:"label"`
}

// Validate checks RenameRequest fields.
func (r *RenameRequest) Validate() error {
	if r.Label == "" {
		return ErrMissingLabel
	}

	if len(r.Label) > maxLabelLen {
		return ErrFieldTooLong("label", maxLabelLen)
	}

	switch r.Kind {
	case "node":
		if r.ID == "" {
			return ErrMissingID
		}
	case "edge":
		if r.Source == "" || r.Target == "" {
			return ErrMissingID
		}
	default:
		return ErrMissingID
	}

	return nil
}

func validateTranscript(t string) error {
	if strings.TrimSpace(t) == "" {
		return ErrMissingTranscript
	}

	if len(t) > maxTranscriptLen {
		return ErrFieldTooLong("transcript", maxTranscriptLen)
	}

	return nil
}

// TranscriptHash returns the hex SHA-256 of the transcript, the cache key.
func TranscriptHash(transcript string) string {
	sum := sha256.Sum256([]byte(transcript))

	return hex.EncodeToString(sum[:])
}

// ValidateHash checks that h looks like a TranscriptHash value.
func ValidateHash(h string) error {
	if len(h) != sha256.Size*2 {
		return ErrInvalidHash
	}

	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ErrInvalidHash
		}
	}

	return nil
}
