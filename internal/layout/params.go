// Package layout assigns 2-D positions to graph nodes and renders them.
//
// Force mode runs a damped simulation of pairwise repulsion, springs along
// links and a pull toward the origin. Hierarchical mode places nodes in
// left-to-right levels and disables physics.
package layout

import "math"

// Params is one force profile.
type Params struct {
	GravitationalConstant float64
	CentralGravity        float64
	SpringLength          float64
	SpringConstant        float64
	Damping               float64
	AvoidOverlap          float64
}

// InitialParams is the profile used until the layout stabilizes and while a
// node is being dragged.
var InitialParams = Params{
	GravitationalConstant: -2000,
	CentralGravity:        0.1,
	SpringLength:          200,
	SpringConstant:        0.04,
	Damping:               0.09,
	AvoidOverlap:          1.5,
}

// SoftParams is the profile after stabilization; a dragged node only
// disturbs its neighbourhood.
var SoftParams = Params{
	GravitationalConstant: -1000,
	CentralGravity:        0.05,
	SpringLength:          200,
	SpringConstant:        0.02,
	Damping:               0.2,
	AvoidOverlap:          1.5,
}

// Integration constants.
const (
	nodeMass    = 1.5
	timeStep    = 0.5
	maxVelocity = 50.0
	minVelocity = 0.1

	// DefaultSeed seeds initial placement and tie-breaking jitter.
	DefaultSeed = 2

	// DefaultStabilizationIterations bounds the first stabilization pass.
	DefaultStabilizationIterations = 1000
)

// Visual sizing.
const (
	minWeight     = 0.1
	maxWeight     = 1000.0
	baseRadius    = 10.0
	minRadius     = 4.0
	baseEdgeWidth = 1.5
	minEdgeWidth  = 0.5
)

// Colors.
const (
	NodeBorderColor = "#97C2FC"
	NodeFillColor   = "#D2E5FF"
	MatchFillColor  = "#FFF5D2"
	EdgeColor       = "#97C2FC"
	LabelColor      = "#343434"
	BackgroundColor = "#FFFFFF"
)

// NodeRadius maps a node weight to a circle radius proportional to its
// square root. Non-positive and tiny weights are clamped.
func NodeRadius(weight float64) float64 {
	r := baseRadius * math.Sqrt(clampWeight(weight))

	return math.Max(r, minRadius)
}

// EdgeWidth maps a link weight to a stroke width.
func EdgeWidth(weight float64) float64 {
	w := baseEdgeWidth * math.Sqrt(clampWeight(weight))

	return math.Max(w, minEdgeWidth)
}

func clampWeight(w float64) float64 {
	switch {
	case math.IsNaN(w) || w < minWeight:
		return minWeight
	case w > maxWeight:
		return maxWeight
	default:
		return w
	}
}
