package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// cell is one terminal character of the drawing.
type cell struct {
	r     rune
	color string
	bold  bool
}

// canvas is a fixed grid of cells drawn back to front.
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, color string, bold bool) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.cells[y*c.cols+x] = cell{r: r, color: color, bold: bold}
}

func (c *canvas) at(x, y int) cell {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return cell{r: ' '}
	}
	return c.cells[y*c.cols+x]
}

// text writes s starting at (x, y), clipped to the canvas.
func (c *canvas) text(x, y int, s, color string, bold bool) {
	for _, r := range s {
		c.set(x, y, r, color, bold)
		x++
	}
}

// line draws a Bresenham line that only fills blank cells.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color string) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	// Bound the walk so off-screen endpoints far away stay cheap.
	for steps := 0; steps <= 4*(c.cols+c.rows); steps++ {
		if inside := x0 >= 0 && y0 >= 0 && x0 < c.cols && y0 < c.rows; inside && c.at(x0, y0).r == ' ' {
			c.set(x0, y0, r, color, false)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// render styles runs of equal cells with lipgloss.
func (c *canvas) render() string {
	var b strings.Builder
	for y := 0; y < c.rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.cols; x++ {
			if x < c.cols && sameStyle(c.at(x, y), c.at(start, y)) {
				continue
			}
			b.WriteString(styleRun(c.cells[y*c.cols+start:y*c.cols+x]))
			start = x
		}
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.color == b.color && a.bold == b.bold
}

func styleRun(run []cell) string {
	if len(run) == 0 {
		return ""
	}
	rs := make([]rune, len(run))
	for i, c := range run {
		rs[i] = c.r
	}
	s := string(rs)
	if run[0].color == "" && !run[0].bold {
		return s
	}
	st := lipgloss.NewStyle().Bold(run[0].bold)
	if run[0].color != "" {
		st = st.Foreground(lipgloss.Color(run[0].color))
	}
	return st.Render(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// cellIndex maps a pixel coordinate to a cell index along one axis.
func cellIndex(px, size float64) int {
	if size <= 0 || math.IsNaN(px) {
		return -1
	}
	return int(math.Floor(px / size))
}
