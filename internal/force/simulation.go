// Package force implements the iterative physics solver behind the timeline
// layout: springs along relations, Barnes-Hut repulsion, positional pull, and
// collision correction, cooled by a geometric alpha schedule.
package force

import (
	"math"
	"math/rand"
)

// Params are the runtime-tunable force parameters.
type Params struct {
	LinkDistance     float64 `json:"link_distance"`
	ChargeStrength   float64 `json:"charge_strength"` // negative repels
	CollisionRadius  float64 `json:"collision_radius"`
	PositionStrength float64 `json:"position_strength"`
}

// DefaultParams returns the stock layout parameters.
func DefaultParams() Params {
	return Params{
		LinkDistance:     100,
		ChargeStrength:   -200,
		CollisionRadius:  30,
		PositionStrength: 0.3,
	}
}

// YStrengthRatio scales the vertical positional pull relative to the
// horizontal one.
const YStrengthRatio = 0.33

// Options are the solver constants that do not change while running.
type Options struct {
	AlphaMin        float64 // ticks stop below this temperature
	AlphaDecay      float64 // fraction of the gap to the target closed per tick
	VelocityDecay   float64 // friction, fraction of velocity lost per tick
	Theta           float64 // Barnes-Hut opening angle
	CollideStrength float64 // fraction of an overlap removed per tick
	Seed            int64
}

// DefaultOptions returns options that cool from 1 to AlphaMin in about 300 ticks.
func DefaultOptions() Options {
	return Options{
		AlphaMin:        0.001,
		AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:   0.4,
		Theta:           0.9,
		CollideStrength: 1,
		Seed:            1,
	}
}

// Link is a spring between two node indices.
type Link struct {
	Source, Target int
}

// Simulation is a single-threaded solver. It is not safe for concurrent use;
// the engine serialises access.
type Simulation struct {
	nodes  []Node
	links  []Link
	params Params
	opts   Options

	alpha       float64
	alphaTarget float64
	ticks       int

	targetX []float64
	targetY float64

	linkStrength []float64
	linkBias     []float64

	rng *rand.Rand
}

// New creates a simulation over nodes (positions already initialised) and
// links. Links with out-of-range or identical endpoints are ignored.
func New(nodes []Node, links []Link, params Params, opts Options) *Simulation {
	s := &Simulation{
		nodes:   nodes,
		params:  params,
		opts:    opts,
		alpha:   1,
		targetX: make([]float64, len(nodes)),
		rng:     rand.New(rand.NewSource(opts.Seed)),
	}
	for _, l := range links {
		if l.Source < 0 || l.Source >= len(nodes) || l.Target < 0 || l.Target >= len(nodes) {
			continue
		}
		if l.Source == l.Target {
			continue
		}
		s.links = append(s.links, l)
	}
	s.initLinks()
	return s
}

// Len returns the number of nodes.
func (s *Simulation) Len() int {
	return len(s.nodes)
}

// Node returns a pointer to node i for pin updates.
func (s *Simulation) Node(i int) *Node {
	return &s.nodes[i]
}

// Links returns the springs in use.
func (s *Simulation) Links() []Link {
	return s.links
}

// Params returns the force parameters in use.
func (s *Simulation) Params() Params {
	return s.params
}

// SetParams replaces the force definitions. Positions and velocities are kept.
func (s *Simulation) SetParams(p Params) {
	s.params = p
	s.initLinks()
}

// SetTargets sets the positional-force targets: one x per node and a shared y.
func (s *Simulation) SetTargets(xs []float64, y float64) {
	copy(s.targetX, xs)
	s.targetY = y
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// SetAlpha sets the current temperature.
func (s *Simulation) SetAlpha(a float64) {
	s.alpha = a
}

// AlphaTarget returns the temperature alpha decays toward.
func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// SetAlphaTarget sets the temperature alpha decays toward.
func (s *Simulation) SetAlphaTarget(a float64) {
	s.alphaTarget = a
}

// Ticks returns the number of ticks applied so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Settled reports whether alpha has cooled below AlphaMin.
func (s *Simulation) Settled() bool {
	return s.alpha < s.opts.AlphaMin
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay

	s.applyLinks(s.alpha)
	s.applyCharge(s.alpha)
	s.applyPosition(s.alpha)
	s.integrate()
	s.applyCollide()

	s.ticks++
}

func (s *Simulation) integrate() {
	keep := 1 - s.opts.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if px, ok := n.PinnedX(); ok {
			n.X, n.VX = px, 0
		} else {
			n.VX *= keep
			n.X += n.VX
		}
		if py, ok := n.PinnedY(); ok {
			n.Y, n.VY = py, 0
		} else {
			n.VY *= keep
			n.Y += n.VY
		}
	}
}

// radius returns the effective collision radius of node i.
func (s *Simulation) radius(i int) float64 {
	return math.Max(s.params.CollisionRadius, s.nodes[i].MinRadius)
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
