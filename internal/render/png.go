package render

import (
	"fmt"
	"image/png"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/visual"
)

// basicFontSize is the pixel height of basicfont.Face7x13. Labels of other
// sizes are drawn with a local scale around their anchor point.
const basicFontSize = 13.0

// WritePNG rasterizes the frame and encodes it as PNG.
func WritePNG(w io.Writer, f engine.Frame, opts Options) error {
	dc, err := rasterize(f, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, dc.Image()); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func rasterize(f engine.Frame, opts Options) (*gg.Context, error) {
	width, height := int(math.Round(f.Viewport.Width)), int(math.Round(f.Viewport.Height))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	v := opts.view()
	dc.Push()
	dc.Translate(v.X, v.Y)
	dc.Scale(v.K, v.K)

	if opts.Axis {
		drawAxisPNG(dc, f)
	}

	dc.SetRGBA(float64(colorLink.R)/255, float64(colorLink.G)/255, float64(colorLink.B)/255, linkOpacity)
	dc.SetLineWidth(linkWidth)
	for _, l := range f.Links {
		dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		dc.Stroke()
	}

	for _, n := range f.Nodes {
		dc.DrawCircle(n.X, n.Y, n.Radius)
		dc.SetColor(visual.RGBA(n.Fill))
		dc.FillPreserve()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(strokeWidth)
		dc.Stroke()
	}

	dc.SetColor(colorText)
	for _, n := range f.Nodes {
		if n.Label.Text == "" {
			continue
		}
		drawLabel(dc, n.Label, n.X, n.Y+n.Radius+2)
	}
	dc.Pop()

	if opts.Legend {
		drawLegendPNG(dc, f, opts.Title)
	}
	return dc, nil
}

// drawLabel centres text horizontally on x with its top edge at y.
func drawLabel(dc *gg.Context, l visual.Label, x, y float64) {
	s := 1.0
	if l.Size > 0 {
		s = l.Size / basicFontSize
	}
	dc.Push()
	dc.ScaleAbout(s, s, x, y)
	dc.DrawStringAnchored(l.Text, x, y, 0.5, 1)
	if l.Bold {
		dc.DrawStringAnchored(l.Text, x+1/s, y, 0.5, 1)
	}
	dc.Pop()
}

func drawAxisPNG(dc *gg.Context, f engine.Frame) {
	if len(f.Axis) == 0 {
		return
	}
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1)
	left, right := f.Viewport.Margins.Left, f.Viewport.Width-f.Viewport.Margins.Right
	dc.DrawLine(left, f.AxisY, right, f.AxisY)
	dc.Stroke()
	for _, t := range f.Axis {
		dc.DrawLine(t.X, f.AxisY, t.X, f.AxisY+tickLength)
		dc.Stroke()
		dc.DrawStringAnchored(t.Label, t.X, f.AxisY+tickLength+2, 0.5, 1)
	}
}

func drawLegendPNG(dc *gg.Context, f engine.Frame, title string) {
	x, y := 16.0, 24.0
	if title != "" {
		dc.SetColor(colorText)
		dc.DrawString(title, x, y)
		y += 20
	}
	for _, e := range f.Legend {
		dc.DrawCircle(x+6, y-4, 6)
		dc.SetColor(visual.RGBA(e.Color))
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawString(e.Text, x+18, y)
		y += 18
	}
}
