// Package engine owns a running layout: it builds the solver from a dataset,
// schedules ticks, and exposes the drag, selection, and live-configuration
// contract that hosts drive.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/force"
	"github.com/matsen/reelgraph/internal/logging"
	"github.com/matsen/reelgraph/internal/timeline"
	"github.com/matsen/reelgraph/internal/visual"
)

var (
	// ErrDisposed is returned by operations that need a layout after Dispose.
	ErrDisposed = errors.New("engine disposed")
	// ErrUnknownEntity is returned when an id is not part of the layout.
	ErrUnknownEntity = errors.New("unknown entity")
)

// satelliteSpread is the vertical offset of a satellite's starting row from
// the viewport centre.
const satelliteSpread = 150

type state int

const (
	stateIdle state = iota
	stateReady
	stateDisposed
)

// Engine is safe for concurrent use. All solver state is guarded by one
// mutex, so a tick and a pin update never interleave on the same node.
type Engine struct {
	mu sync.Mutex

	logger   *slog.Logger
	onTick   func(context.Context, Frame)
	onSelect func(dataset.Entity)

	state    state
	cfg      config.Config
	viewport config.Viewport

	graph   *dataset.Graph
	report  dataset.Report
	encoder *visual.Encoder
	styles  []visual.Style
	scale   *timeline.Scale
	sim     *force.Simulation

	// active is true while ticks are scheduled; it clears once alpha cools
	// below the minimum and is set again by any restart.
	active   bool
	dragging map[int]bool

	loop       *loop
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.OrDiscard(l)
	}
}

// WithOnTick registers the per-tick frame callback. It runs outside the
// engine lock, so it may call back into the engine. Frames from a background
// loop carry a context that ends when the loop stops; frames from Step carry
// context.Background.
func WithOnTick(fn func(context.Context, Frame)) Option {
	return func(e *Engine) {
		e.onTick = fn
	}
}

// WithOnSelect registers the selection callback.
func WithOnSelect(fn func(dataset.Entity)) Option {
	return func(e *Engine) {
		e.onSelect = fn
	}
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.Discard(),
		cfg:      *config.Default(),
		dragging: make(map[int]bool),
	}
	e.viewport = e.cfg.Viewport
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init replaces any current layout with one built from ds. A nil cfg uses
// the defaults; a zero viewport uses cfg.Viewport. An empty dataset leaves
// the engine idle. Degraded input is recovered locally and described by the
// returned report; only an invalid configuration is an error.
func (e *Engine) Init(ds *dataset.Dataset, cfg *config.Config, vp config.Viewport) (dataset.Report, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if vp.Width > 0 && vp.Height > 0 {
		c := *cfg
		c.Viewport = vp
		cfg = &c
	}
	if err := cfg.Validate(); err != nil {
		return dataset.Report{}, fmt.Errorf("init: %w", err)
	}

	e.Dispose()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = *cfg
	e.viewport = cfg.Viewport
	e.graph, e.report = dataset.Normalize(ds, dataset.NormalizeOptions{DirectingRoles: cfg.Dataset.DirectingRoles})
	e.encoder = visual.NewEncoder(cfg.Visual, e.graph)
	e.logReportLocked()

	if e.graph.IsEmpty() {
		e.state = stateIdle
		e.logger.Debug("engine idle", "reason", "empty dataset")
		return e.report, nil
	}

	e.styles = make([]visual.Style, len(e.graph.Entities))
	for i := range e.graph.Entities {
		e.styles[i] = e.encoder.Style(&e.graph.Entities[i])
	}

	e.buildLocked()
	e.state = stateReady
	e.active = true
	e.logger.Debug("engine initialized",
		"entities", len(e.graph.Entities),
		"relations", len(e.graph.Relations),
		"directors", e.graph.Directors.Len())
	return e.report, nil
}

// Report returns the recoveries made while loading the current dataset.
func (e *Engine) Report() dataset.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// Config returns a copy of the configuration in use.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Entity returns the full record of an entity in the layout.
func (e *Engine) Entity(id string) (dataset.Entity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return dataset.Entity{}, false
	}
	ent, ok := e.graph.Entity(id)
	if !ok {
		return dataset.Entity{}, false
	}
	return ent.Clone(), true
}

func (e *Engine) logReportLocked() {
	for _, d := range e.report.DroppedEntities {
		e.logger.Warn("dropped entity", "id", d.ID, "reason", d.Reason)
	}
	for _, d := range e.report.DroppedRelations {
		e.logger.Warn("dropped relation", "source", d.SourceID, "target", d.TargetID, "role", d.Role, "reason", d.Reason)
	}
	for _, id := range e.report.MissingYears {
		e.logger.Warn("anchor without year pinned at domain midpoint", "id", id)
	}
	for i := range e.graph.Entities {
		ent := &e.graph.Entities[i]
		if ent.IsAnchor() || ent.Centrality == nil {
			continue
		}
		if _, ok := visual.UsableCentrality(ent.Centrality); !ok {
			e.logger.Warn("unusable centrality, using minimum radius", "id", ent.ID, "centrality", *ent.Centrality)
		}
	}
}

// buildLocked creates the solver and places every node.
func (e *Engine) buildLocked() {
	vp := e.viewport
	e.scale = timeline.New(e.graph.Years(), vp.Margins.Left, vp.Width-vp.Margins.Right)
	rng := rand.New(rand.NewSource(e.cfg.Simulation.Seed))

	nodes := make([]force.Node, len(e.graph.Entities))
	centerY := vp.Height / 2
	for i := range e.graph.Entities {
		ent := &e.graph.Entities[i]
		if ent.IsAnchor() {
			nodes[i].Y = centerY
			nodes[i].MinRadius = e.styles[i].Radius
			continue
		}
		lo, hi := e.scale.Range()
		nodes[i].X = lo + rng.Float64()*(hi-lo)
		if rng.Intn(2) == 0 {
			nodes[i].Y = centerY - satelliteSpread
		} else {
			nodes[i].Y = centerY + satelliteSpread
		}
	}

	links := make([]force.Link, len(e.graph.Relations))
	for i, r := range e.graph.Relations {
		links[i] = force.Link{Source: r.Source, Target: r.Target}
	}

	e.sim = force.New(nodes, links, forceParams(e.cfg.Forces), forceOptions(e.cfg.Simulation))
	e.placeAnchorsLocked()
}

// placeAnchorsLocked pins anchors to the current scale and resets the
// positional targets.
func (e *Engine) placeAnchorsLocked() {
	targets := make([]float64, len(e.graph.Entities))
	centerX := e.viewport.Width / 2
	for i := range e.graph.Entities {
		ent := &e.graph.Entities[i]
		if !ent.IsAnchor() {
			targets[i] = centerX
			continue
		}
		x := e.anchorXLocked(ent)
		e.sim.Node(i).Anchor(x)
		targets[i] = x
	}
	e.sim.SetTargets(targets, e.viewport.Height/2)
}

func (e *Engine) anchorXLocked(ent *dataset.Entity) float64 {
	if !ent.HasYear() {
		return e.scale.Map(e.scale.Midpoint())
	}
	x := e.scale.MapYear(*ent.Year)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return e.scale.Map(e.scale.Midpoint())
	}
	return x
}

func forceParams(f config.Forces) force.Params {
	return force.Params{
		LinkDistance:     f.LinkDistance,
		ChargeStrength:   f.ChargeStrength,
		CollisionRadius:  f.CollisionRadius,
		PositionStrength: f.PositionStrength,
	}
}

func forceOptions(s config.Simulation) force.Options {
	opts := force.DefaultOptions()
	opts.AlphaMin = s.AlphaMin
	opts.AlphaDecay = s.AlphaDecay
	opts.VelocityDecay = s.VelocityDecay
	opts.Theta = s.Theta
	opts.Seed = s.Seed
	return opts
}

// UpdateConfig applies a partial force update. Force definitions are rebuilt
// and the solver restarted from full temperature; positions are kept.
func (e *Engine) UpdateConfig(p config.Partial) error {
	if p.IsEmpty() {
		return nil
	}
	e.mu.Lock()
	next := e.cfg.Forces.Apply(p)
	if err := next.Validate(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("update config: %w", err)
	}
	e.cfg.Forces = next
	if e.sim != nil {
		e.sim.SetParams(forceParams(next))
		e.restartLocked(1)
	}
	e.mu.Unlock()

	e.logger.Debug("forces updated",
		"link_distance", next.LinkDistance,
		"charge_strength", next.ChargeStrength,
		"collision_radius", next.CollisionRadius,
		"position_strength", next.PositionStrength)
	e.wakeLoop()
	return nil
}

// Resize moves the timeline range to the new viewport. Anchors follow the
// new scale, satellites keep their positions and are pulled toward the new
// centre as the solver restarts.
func (e *Engine) Resize(vp config.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	e.mu.Lock()
	if vp.Margins == (config.Margins{}) {
		vp.Margins = e.viewport.Margins
	}
	e.viewport = vp
	e.cfg.Viewport = vp
	if e.sim != nil {
		e.scale = timeline.New(e.graph.Years(), vp.Margins.Left, vp.Width-vp.Margins.Right)
		e.placeAnchorsLocked()
		e.restartLocked(1)
	}
	e.mu.Unlock()

	e.logger.Debug("viewport resized", "width", vp.Width, "height", vp.Height)
	e.wakeLoop()
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() config.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Scale returns the timeline scale in use, or nil when idle.
func (e *Engine) Scale() *timeline.Scale {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scale == nil {
		return nil
	}
	s := *e.scale
	return &s
}

// restartLocked raises alpha to at least a and reschedules ticks.
func (e *Engine) restartLocked(a float64) {
	if e.sim.Alpha() < a {
		e.sim.SetAlpha(a)
	}
	e.active = true
}

// Reheat sets the temperature target and reschedules ticks.
func (e *Engine) Reheat(target float64) {
	e.mu.Lock()
	if e.sim != nil {
		e.sim.SetAlphaTarget(target)
		e.active = true
	}
	e.mu.Unlock()
	e.logger.Debug("reheat", "alpha_target", target)
	e.wakeLoop()
}

// Cool returns the temperature target to zero so the layout settles.
func (e *Engine) Cool() {
	e.mu.Lock()
	if e.sim != nil {
		e.sim.SetAlphaTarget(0)
	}
	e.mu.Unlock()
	e.logger.Debug("cool")
}

// Alpha returns the current temperature, or zero when idle.
func (e *Engine) Alpha() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sim == nil {
		return 0
	}
	return e.sim.Alpha()
}

// Active reports whether ticks are still scheduled.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim != nil && e.active
}

// Dispose stops any tick loop and releases the layout. It is idempotent.
func (e *Engine) Dispose() {
	e.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateDisposed {
		return
	}
	wasReady := e.state == stateReady
	e.state = stateDisposed
	e.sim = nil
	e.graph = nil
	e.styles = nil
	e.encoder = nil
	e.scale = nil
	e.active = false
	e.dragging = make(map[int]bool)
	if wasReady {
		e.logger.Debug("engine disposed")
	}
}
