package client

import "github.com/persistorai/mindmap/internal/models"

// HealthResponse is the liveness check response.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	SchemaVersion int     `json:"schema_version"`
	Database      string  `json:"database"`
	DBConns       string  `json:"db_conns,omitempty"`
	Generator     string  `json:"generator"`
	Breaker       string  `json:"breaker,omitempty"`
	Viewers       int     `json:"viewers"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse lists the state of each dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GalleryQuery filters gallery listings. Zero values are omitted.
type GalleryQuery struct {
	Search string
	Tag    string
	Limit  int
	Offset int
}

// FilterResult is the filtered view of a graph for a search term.
type FilterResult struct {
	Term    string         `json:"term"`
	Full    bool           `json:"full"`
	Matched []string       `json:"matched"`
	Nodes   []*models.Node `json:"nodes"`
	Links   []*models.Link `json:"links"`
}

// ViewOptions selects the layout of a shared view.
type ViewOptions struct {
	Query string
	Mode  string
}

// Frame is a stabilized layout of a graph in canvas coordinates.
type Frame struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Scale      float64     `json:"scale"`
	Stabilized bool        `json:"stabilized"`
	Filtered   bool        `json:"filtered"`
	Term       string      `json:"term,omitempty"`
	Nodes      []FrameNode `json:"nodes"`
	Edges      []FrameEdge `json:"edges"`
}

// FrameNode is one positioned node.
type FrameNode struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Fixed   bool    `json:"fixed,omitempty"`
	Matched bool    `json:"matched,omitempty"`
}

// FrameEdge is one positioned edge.
type FrameEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  string  `json:"label,omitempty"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// NodeStat is the quiz record of one node with its accuracy in percent.
type NodeStat struct {
	models.QuizStat
	Accuracy float64 `json:"accuracy"`
}
