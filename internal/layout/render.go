package layout

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

const (
	arrowLength = 10.0
	arrowWidth  = 6.0
	borderWidth = 2.0
)

// Render rasterizes a frame onto a Width x Height RGBA image.
func Render(f Frame) image.Image {
	w, h := int(math.Max(1, f.Width)), int(math.Max(1, f.Height))
	dc := gg.NewContext(w, h)

	dc.SetHexColor(BackgroundColor)
	dc.Clear()

	radii := make(map[string]float64, len(f.Nodes))
	for _, n := range f.Nodes {
		radii[n.ID] = n.Radius
	}

	for _, e := range f.Edges {
		drawEdge(dc, e, radii[e.Source], radii[e.Target], f.Scale)
	}

	for _, n := range f.Nodes {
		drawNode(dc, n)
	}

	return dc.Image()
}

func drawEdge(dc *gg.Context, e EdgeFrame, srcRadius, dstRadius, scale float64) {
	dc.SetHexColor(EdgeColor)
	dc.SetLineWidth(math.Max(e.Width, minEdgeWidth))

	if e.SelfLoop {
		r := math.Max(srcRadius, minRadius*scale)
		dc.DrawCircle(e.X1, e.Y1-1.2*r, 0.7*r)
		dc.Stroke()
		drawEdgeLabel(dc, e.Label, e.X1, e.Y1-2.1*r)

		return
	}

	dx, dy := e.X2-e.X1, e.Y2-e.Y1
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}

	ux, uy := dx/dist, dy/dist
	tipX, tipY := e.X2-ux*dstRadius, e.Y2-uy*dstRadius

	dc.DrawLine(e.X1+ux*srcRadius, e.Y1+uy*srcRadius, tipX, tipY)
	dc.Stroke()

	baseX, baseY := tipX-ux*arrowLength, tipY-uy*arrowLength
	dc.MoveTo(tipX, tipY)
	dc.LineTo(baseX-uy*arrowWidth/2, baseY+ux*arrowWidth/2)
	dc.LineTo(baseX+uy*arrowWidth/2, baseY-ux*arrowWidth/2)
	dc.ClosePath()
	dc.Fill()

	drawEdgeLabel(dc, e.Label, (e.X1+e.X2)/2, (e.Y1+e.Y2)/2)
}

func drawEdgeLabel(dc *gg.Context, label string, x, y float64) {
	if label == "" {
		return
	}

	dc.SetHexColor(LabelColor)
	dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
}

func drawNode(dc *gg.Context, n NodeFrame) {
	r := math.Max(n.Radius, 1)

	fill := NodeFillColor
	if n.Matched {
		fill = MatchFillColor
	}

	dc.DrawCircle(n.X, n.Y, r)
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor(NodeBorderColor)
	dc.SetLineWidth(borderWidth)
	dc.Stroke()

	dc.SetHexColor(LabelColor)
	dc.DrawStringAnchored(n.Label, n.X, n.Y+r+4, 0.5, 1)
}

// Blank reports whether img has no pixel that differs from the background.
func Blank(img image.Image) bool {
	if img == nil {
		return true
	}

	b := img.Bounds()
	if b.Empty() {
		return true
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff {
				return false
			}
		}
	}

	return true
}
