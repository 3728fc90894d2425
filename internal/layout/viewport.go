package layout

import (
	"math"
	"time"
)

// Fit animation settings.
const (
	FitDuration = 200 * time.Millisecond
	fitMargin   = 1.02
	maxFitScale = 1.0
	minScale    = 0.05
)

// Point is a 2-D coordinate in either world or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Union returns the smallest box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// EaseInOutQuad maps t in [0,1] onto an accelerate-then-decelerate curve.
func EaseInOutQuad(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 2 * t * t
	default:
		return -1 + (4-2*t)*t
	}
}

type animation struct {
	start      time.Time
	fromScale  float64
	toScale    float64
	fromCenter Point
	toCenter   Point
}

// Viewport maps world coordinates onto a Width x Height canvas.
type Viewport struct {
	Width  float64
	Height float64
	Scale  float64
	Center Point

	anim *animation
}

// NewViewport returns a viewport centred on the origin at scale 1.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{Width: width, Height: height, Scale: 1}
}

// fitFor returns the scale and centre that frame b.
func (v *Viewport) fitFor(b Bounds) (float64, Point) {
	w := b.Width() * fitMargin
	h := b.Height() * fitMargin

	scale := maxFitScale
	if w > 0 {
		scale = math.Min(scale, v.Width/w)
	}
	if h > 0 {
		scale = math.Min(scale, v.Height/h)
	}

	return math.Max(scale, minScale), b.Center()
}

// Fit frames b immediately, cancelling any running animation.
func (v *Viewport) Fit(b Bounds) {
	v.anim = nil
	v.Scale, v.Center = v.fitFor(b)
}

// AnimateFit starts a FitDuration transition toward framing b.
func (v *Viewport) AnimateFit(b Bounds, now time.Time) {
	scale, center := v.fitFor(b)
	v.anim = &animation{
		start:      now,
		fromScale:  v.Scale,
		toScale:    scale,
		fromCenter: v.Center,
		toCenter:   center,
	}
}

// Advance moves a running animation to now. It reports whether the viewport
// changed.
func (v *Viewport) Advance(now time.Time) bool {
	if v.anim == nil {
		return false
	}

	a := v.anim
	t := float64(now.Sub(a.start)) / float64(FitDuration)
	e := EaseInOutQuad(t)

	v.Scale = a.fromScale + (a.toScale-a.fromScale)*e
	v.Center = Point{
		X: a.fromCenter.X + (a.toCenter.X-a.fromCenter.X)*e,
		Y: a.fromCenter.Y + (a.toCenter.Y-a.fromCenter.Y)*e,
	}

	if t >= 1 {
		v.anim = nil
	}

	return true
}

// Animating reports whether a fit transition is in progress.
func (v *Viewport) Animating() bool { return v.anim != nil }

// ToScreen converts a world point to canvas pixels.
func (v *Viewport) ToScreen(p Point) Point {
	return Point{
		X: (p.X-v.Center.X)*v.Scale + v.Width/2,
		Y: (p.Y-v.Center.Y)*v.Scale + v.Height/2,
	}
}

// ToWorld converts canvas pixels to a world point.
func (v *Viewport) ToWorld(p Point) Point {
	return Point{
		X: (p.X-v.Width/2)/v.Scale + v.Center.X,
		Y: (p.Y-v.Height/2)/v.Scale + v.Center.Y,
	}
}
