// Package render draws engine frames as SVG, PNG, or HTML and streams them
// as NDJSON. Renderers are passive consumers of the frame stream.
package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/interact"
)

// Format is an output encoding.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []Format{FormatSVG, FormatPNG, FormatHTML}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch Format(ext) {
	case FormatSVG, FormatPNG, FormatHTML:
		return Format(ext), nil
	case "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be svg, png, or html", ext)
	}
}

// Options controls what is drawn around the nodes.
type Options struct {
	View   interact.ViewTransform
	Legend bool
	Axis   bool
	Title  string
}

// DefaultOptions draws the axis and legend with an identity view.
func DefaultOptions() Options {
	return Options{View: interact.Identity(), Legend: true, Axis: true}
}

func (o Options) view() interact.ViewTransform {
	if o.View.K == 0 {
		return interact.Identity()
	}
	return o.View
}

// Link and node styling shared by the SVG and PNG renderers.
var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorLink       = color.RGBA{0x99, 0x99, 0x99, 0xff}
	colorStroke     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorAxis       = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorText       = color.RGBA{0x22, 0x22, 0x22, 0xff}
)

const (
	linkOpacity = 0.6
	linkWidth   = 2.0
	strokeWidth = 2.0
	tickLength  = 6.0
)

// Write encodes f in the given format.
func Write(w io.Writer, format Format, f engine.Frame, opts Options) error {
	switch format {
	case FormatSVG:
		return WriteSVG(w, f, opts)
	case FormatPNG:
		return WritePNG(w, f, opts)
	case FormatHTML:
		return WriteHTML(w, f, opts)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// SaveFile writes f to path, choosing the format from the extension.
func SaveFile(path string, f engine.Frame, opts Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(file, format, f, opts); err != nil {
		file.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return file.Close()
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func fontWeight(bold bool) string {
	if bold {
		return "bold"
	}
	return "normal"
}
