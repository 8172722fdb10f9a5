// Package tui is the interactive terminal host for the layout engine. Mouse
// gestures drive the interaction controller. The engine either runs its own
// background loop and relays frames to the program, or is stepped on the
// program's tick schedule.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/reelgraph/internal/clipboard"
	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/engine"
	"github.com/matsen/reelgraph/internal/interact"
)

// Layout rows reserved around the drawing.
const (
	headerRows = 1
	footerRows = 2
)

// wheelDelta is the pixel delta of one wheel notch.
const wheelDelta = 100.0

// cellAspect is the height of a terminal cell relative to its width.
const cellAspect = 2.0

// minPlotHeight keeps the plot area usable in very short terminals.
const minPlotHeight = 100.0

// Force steps per key press, one notch of the original sliders.
const (
	linkStep     = 10.0
	chargeStep   = 10.0
	collideStep  = 5.0
	positionStep = 0.05
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC3333"))
	linkColor   = "#999999"
	axisColor   = "#666666"
)

// tickMsg paces engine steps.
type tickMsg time.Time

// ReloadMsg replaces the dataset, as when the watched file changes.
type ReloadMsg struct {
	Dataset *dataset.Dataset
}

// target routes controller selections through the model so the selected
// record is kept for display and copying.
type target struct {
	*engine.Engine
	onSelect func(id string)
}

func (t target) Select(id string) error {
	if err := t.Engine.Select(id); err != nil {
		return err
	}
	t.onSelect(id)
	return nil
}

// Model is the bubbletea model of the explore view.
type Model struct {
	engine *engine.Engine
	cfg    config.Config
	ctrl   *interact.Controller
	title  string

	width, height int
	frame         engine.Frame
	selected      *dataset.Entity
	status        string
	err           error
	lastX, lastY  float64

	copy     func(dataset.Entity) error
	interval time.Duration

	// Set when the engine's background loop drives the view.
	ctx    context.Context
	frames *Frames
	heated bool
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// WithCopy replaces the clipboard writer.
func WithCopy(fn func(dataset.Entity) error) Option {
	return func(m *Model) {
		m.copy = fn
	}
}

// WithLoop drives the view from the engine's background loop instead of
// stepping it on a program tick. frames must be the relay registered with
// the engine through engine.WithOnTick. The loop runs until ctx ends or the
// program quits.
func WithLoop(ctx context.Context, frames *Frames) Option {
	return func(m *Model) {
		m.ctx = ctx
		m.frames = frames
	}
}

// New creates a model over an initialized engine.
func New(e *engine.Engine, opts ...Option) *Model {
	cfg := e.Config()
	m := &Model{
		engine: e,
		cfg:    cfg,
		title:  "reel",
		copy:   clipboard.CopyEntity,
		frame:  e.Snapshot(),
	}
	m.interval = time.Second / 60
	if cfg.Simulation.TickRate > 0 {
		m.interval = time.Duration(float64(time.Second) / cfg.Simulation.TickRate)
	}
	m.ctrl = interact.NewController(target{Engine: e, onSelect: m.selectID}, cfg.Zoom, cfg.Interaction)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick schedule, or the engine loop when one is configured.
func (m *Model) Init() tea.Cmd {
	if m.frames == nil {
		return m.tick()
	}
	m.startLoop()
	return m.frames.next(m.ctx)
}

func (m *Model) startLoop() {
	if m.frames == nil {
		return
	}
	if err := m.engine.Start(m.ctx); err != nil {
		m.err = err
	}
}

func (m *Model) stopLoop() {
	if m.frames != nil {
		m.engine.Stop()
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		if m.frames != nil {
			return m, nil
		}
		if m.engine.Step() {
			m.frame = m.engine.Snapshot()
		}
		return m, m.tick()

	case frameMsg:
		m.frame = engine.Frame(msg)
		return m, m.frames.next(m.ctx)

	case ReloadMsg:
		m.reload(msg.Dataset)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.frame = m.engine.Snapshot()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.ctrl.Cancel()
		m.stopLoop()
		return m, tea.Quit
	case "esc":
		m.ctrl.Cancel()
		m.selected = nil
		m.status = ""
	case "r":
		m.ctrl.ResetView()
	case "c":
		m.copySelection()
	case "+", "=":
		m.zoomCentre(-wheelDelta)
	case "-":
		m.zoomCentre(wheelDelta)
	case "left":
		m.pan(1, 0)
	case "right":
		m.pan(-1, 0)
	case "up":
		m.pan(0, 1)
	case "down":
		m.pan(0, -1)
	case "l":
		m.stepForce("link", -linkStep)
	case "L":
		m.stepForce("link", linkStep)
	case "g":
		m.stepForce("charge", -chargeStep)
	case "G":
		m.stepForce("charge", chargeStep)
	case "o":
		m.stepForce("collide", -collideStep)
	case "O":
		m.stepForce("collide", collideStep)
	case "p":
		m.stepForce("position", -positionStep)
	case "P":
		m.stepForce("position", positionStep)
	case " ":
		m.toggleHeat()
	}
	return m, nil
}

// stepForce nudges one force by delta, clamped to its control range, and
// applies it to the running layout.
func (m *Model) stepForce(name string, delta float64) {
	f := m.engine.Config().Forces
	var p config.Partial
	var v float64
	switch name {
	case "link":
		v = clampTo(f.LinkDistance+delta, config.MinLinkDistance, config.MaxLinkDistance)
		p.LinkDistance = &v
	case "charge":
		v = clampTo(f.ChargeStrength+delta, config.MinChargeStrength, config.MaxChargeStrength)
		p.ChargeStrength = &v
	case "collide":
		v = clampTo(f.CollisionRadius+delta, config.MinCollisionRadius, config.MaxCollisionRadius)
		p.CollisionRadius = &v
	case "position":
		v = clampTo(math.Round((f.PositionStrength+delta)*100)/100, config.MinPositionStrength, config.MaxPositionStrength)
		p.PositionStrength = &v
	default:
		return
	}
	if err := m.engine.UpdateConfig(p); err != nil {
		m.err = err
		return
	}
	m.cfg.Forces = m.engine.Config().Forces
	m.err = nil
	m.status = fmt.Sprintf("%s %g", name, v)
	m.frame = m.engine.Snapshot()
}

// toggleHeat holds the layout warm at the drag temperature, or lets it cool.
func (m *Model) toggleHeat() {
	if m.heated {
		m.engine.Cool()
		m.heated = false
		m.status = "cooling"
		return
	}
	m.engine.Reheat(m.cfg.Simulation.DragAlphaTarget)
	m.heated = true
	m.status = "reheated"
}

func clampTo(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// resize records the terminal size and fits the engine viewport to the
// drawing's aspect ratio, keeping the configured width.
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	rows := m.drawRows()
	if w <= 0 || rows <= 0 {
		return
	}
	vp := m.engine.Viewport()
	height := vp.Width * float64(rows) * cellAspect / float64(w)
	height = math.Max(height, vp.Margins.Top+vp.Margins.Bottom+minPlotHeight)
	if math.Abs(height-vp.Height) > 1 {
		vp.Height = height
		m.engine.Resize(vp)
		m.frame = m.engine.Snapshot()
	}
	cw, ch := m.cellSize()
	m.ctrl.SetHitSlop(math.Hypot(cw, ch) / 2)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	sx, sy, ok := m.screenPoint(msg.X, msg.Y)
	switch {
	case ok:
		m.lastX, m.lastY = sx, sy
	case msg.Action == tea.MouseActionRelease:
		// Released outside the drawing: finish where the pointer left it.
		sx, sy = m.lastX, m.lastY
	default:
		return
	}
	var err error
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctrl.Wheel(sx, sy, -wheelDelta)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctrl.Wheel(sx, sy, wheelDelta)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		err = m.ctrl.PointerDown(sx, sy)
	case msg.Action == tea.MouseActionMotion:
		err = m.ctrl.PointerMove(sx, sy)
	case msg.Action == tea.MouseActionRelease:
		err = m.ctrl.PointerUp(sx, sy)
	}
	m.err = err
}

func (m *Model) selectID(id string) {
	ent, ok := m.engine.Entity(id)
	if !ok {
		return
	}
	m.selected = &ent
	m.status = ""
}

func (m *Model) copySelection() {
	if m.selected == nil {
		m.status = "nothing selected"
		return
	}
	if err := m.copy(*m.selected); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "copied " + m.selected.ID
}

// reload replaces the dataset. The view returns to identity and the
// selection is dropped.
func (m *Model) reload(ds *dataset.Dataset) {
	m.ctrl.Cancel()
	m.stopLoop()
	cfg := m.cfg
	if _, err := m.engine.Init(ds, &cfg, m.engine.Viewport()); err != nil {
		m.err = err
		return
	}
	m.heated = false
	m.startLoop()
	m.ctrl.ResetView()
	m.selected = nil
	m.err = nil
	m.frame = m.engine.Snapshot()
	m.status = fmt.Sprintf("reloaded %d entities", len(m.frame.Nodes))
}

func (m *Model) zoomCentre(deltaY float64) {
	vp := m.engine.Viewport()
	m.ctrl.Wheel(vp.Width/2, vp.Height/2, deltaY)
}

// pan shifts the view by whole cells.
func (m *Model) pan(dx, dy float64) {
	cw, ch := m.cellSize()
	m.ctrl.SetView(m.ctrl.View().Translate(dx*cw, dy*ch))
}

// drawRows is the number of terminal rows given to the drawing.
func (m *Model) drawRows() int {
	return max(m.height-headerRows-footerRows, 0)
}

// cellSize is the viewport area covered by one terminal cell.
func (m *Model) cellSize() (w, h float64) {
	vp := m.engine.Viewport()
	cols, rows := max(m.width, 1), max(m.drawRows(), 1)
	return vp.Width / float64(cols), vp.Height / float64(rows)
}

// screenPoint maps a terminal cell to the screen pixel at its centre.
func (m *Model) screenPoint(col, row int) (sx, sy float64, ok bool) {
	row -= headerRows
	if col < 0 || row < 0 || col >= m.width || row >= m.drawRows() {
		return 0, 0, false
	}
	cw, ch := m.cellSize()
	return (float64(col) + 0.5) * cw, (float64(row) + 0.5) * ch, true
}

// cellOf maps a simulation point to its terminal cell within the drawing.
func (m *Model) cellOf(x, y float64) (col, row int) {
	sx, sy := m.ctrl.View().Apply(x, y)
	cw, ch := m.cellSize()
	return cellIndex(sx, cw), cellIndex(sy, ch)
}

// View renders the header, drawing, and status lines.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	b.WriteString(m.draw().render())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(statusStyle.Render(truncate("drag move · click select · wheel/+/- zoom · arrows pan · l/L g/G o/O p/P forces · space heat · r reset · c copy · q quit", m.width)))
	return b.String()
}

func (m *Model) header() string {
	parts := []string{headerStyle.Render(m.title)}
	for _, e := range m.frame.Legend {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render("●")+" "+e.Text)
	}
	return strings.Join(parts, "  ")
}

func (m *Model) statusLine() string {
	f := m.frame
	state := "running"
	if f.Settled {
		state = "settled"
	}
	fc := m.cfg.Forces
	line := fmt.Sprintf("tick %d  α %.4f  %s  zoom %.2f  link %g charge %g collide %g pos %.2f",
		f.Tick, f.Alpha, state, m.ctrl.View().K,
		fc.LinkDistance, fc.ChargeStrength, fc.CollisionRadius, fc.PositionStrength)
	if m.selected != nil {
		line += "  │ " + describe(*m.selected)
	}
	if m.status != "" {
		line += "  │ " + m.status
	}
	if m.err != nil {
		return errorStyle.Render(truncate(line+"  │ "+m.err.Error(), m.width))
	}
	return statusStyle.Render(truncate(line, m.width))
}

func describe(ent dataset.Entity) string {
	label := ent.Label
	if label == "" {
		label = ent.ID
	}
	if ent.Year != nil {
		return fmt.Sprintf("%s (%d)", label, *ent.Year)
	}
	return label
}

// draw rasterizes the frame: links, axis, nodes, then anchor labels.
func (m *Model) draw() *canvas {
	c := newCanvas(m.width, m.drawRows())
	f := m.frame

	for _, l := range f.Links {
		x0, y0 := m.cellOf(l.X1, l.Y1)
		x1, y1 := m.cellOf(l.X2, l.Y2)
		c.line(x0, y0, x1, y1, '·', linkColor)
	}

	if len(f.Axis) > 0 {
		left, y := m.cellOf(f.Viewport.Margins.Left, f.AxisY)
		right, _ := m.cellOf(f.Viewport.Width-f.Viewport.Margins.Right, f.AxisY)
		for x := left; x <= right; x++ {
			c.set(x, y, '─', axisColor, false)
		}
		for _, t := range f.Axis {
			x, _ := m.cellOf(t.X, f.AxisY)
			c.set(x, y, '┴', axisColor, false)
			c.text(x-len(t.Label)/2, y+1, t.Label, axisColor, false)
		}
	}

	selected := ""
	if m.selected != nil {
		selected = m.selected.ID
	}
	for _, n := range f.Nodes {
		x, y := m.cellOf(n.X, n.Y)
		glyph := '●'
		if n.Kind == dataset.KindAnchor {
			glyph = '◆'
		}
		if n.ID == selected {
			glyph = '◉'
		}
		c.set(x, y, glyph, n.Fill, n.Label.Bold)
	}
	for _, n := range f.Nodes {
		if n.Kind != dataset.KindAnchor && n.ID != selected {
			continue
		}
		x, y := m.cellOf(n.X, n.Y)
		c.text(x+2, y, n.Label.Text, n.Fill, n.Label.Bold)
	}
	return c
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	rs := []rune(s)
	n := min(len(rs), max(width-1, 0))
	return string(rs[:n]) + "…"
}
