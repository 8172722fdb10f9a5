package render

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matsen/reelgraph/internal/engine"
)

// WriteSVG draws the frame as a standalone SVG document. Nodes, links, and
// the axis sit inside a group carrying the view transform; the legend is
// drawn in screen space.
func WriteSVG(w io.Writer, f engine.Frame, opts Options) error {
	width, height := int(math.Round(f.Viewport.Width)), int(math.Round(f.Viewport.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(colorBackground)))

	v := opts.view()
	canvas.Group(`id="view"`, fmt.Sprintf(`transform="translate(%g,%g) scale(%g)"`, v.X, v.Y, v.K))

	if opts.Axis {
		drawAxisSVG(canvas, f)
	}

	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-opacity:%g;stroke-width:%g", css(colorLink), linkOpacity, linkWidth))
	for _, l := range f.Links {
		canvas.Line(px(l.X1), px(l.Y1), px(l.X2), px(l.Y2))
	}
	canvas.Gend()

	for _, n := range f.Nodes {
		canvas.Circle(px(n.X), px(n.Y), px(n.Radius),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", n.Fill, css(colorStroke), strokeWidth),
			fmt.Sprintf(`data-id="%s"`, html.EscapeString(n.ID)))
	}
	for _, n := range f.Nodes {
		canvas.Text(px(n.X), px(n.Y+n.Radius+n.Label.Size), n.Label.Text,
			fmt.Sprintf("text-anchor:middle;fill:%s;font-size:%gpx;font-weight:%s;font-family:sans-serif",
				css(colorText), n.Label.Size, fontWeight(n.Label.Bold)))
	}
	canvas.Gend()

	if opts.Legend {
		drawLegendSVG(canvas, f, opts.Title)
	}
	canvas.End()
	return nil
}

func drawAxisSVG(canvas *svg.SVG, f engine.Frame) {
	if len(f.Axis) == 0 {
		return
	}
	y := px(f.AxisY)
	style := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	left, right := f.Viewport.Margins.Left, f.Viewport.Width-f.Viewport.Margins.Right
	canvas.Line(px(left), y, px(right), y, style)
	for _, t := range f.Axis {
		x := px(t.X)
		canvas.Line(x, y, x, y+px(tickLength), style)
		canvas.Text(x, y+px(tickLength)+14, t.Label,
			fmt.Sprintf("text-anchor:middle;fill:%s;font-size:12px;font-family:sans-serif", css(colorAxis)))
	}
}

func drawLegendSVG(canvas *svg.SVG, f engine.Frame, title string) {
	x, y := 16, 24
	if title != "" {
		canvas.Text(x, y, title,
			fmt.Sprintf("fill:%s;font-size:16px;font-weight:bold;font-family:sans-serif", css(colorText)))
		y += 22
	}
	for _, e := range f.Legend {
		canvas.Circle(x+6, y-4, 6, fmt.Sprintf("fill:%s", e.Color))
		canvas.Text(x+18, y, e.Text, fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif", css(colorText)))
		y += 18
	}
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
