package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// body adapts a node to the Barnes-Hut particle interface. Every node has
// unit mass, so an aggregate's mass is its node count.
type body struct {
	n *Node
}

func (b *body) Coord2() r2.Vec { return r2.Vec{X: b.n.X, Y: b.n.Y} }
func (b *body) Mass() float64  { return 1 }

// distanceMin2 bounds the squared distance below which repulsion stops growing.
const distanceMin2 = 1.0

// applyCharge applies pairwise inverse-square repulsion (or attraction for a
// positive ChargeStrength) using a Barnes-Hut quadtree.
func (s *Simulation) applyCharge(alpha float64) {
	if len(s.nodes) < 2 || s.params.ChargeStrength == 0 {
		return
	}

	particles := make([]barneshut.Particle2, len(s.nodes))
	for i := range s.nodes {
		particles[i] = &body{n: &s.nodes[i]}
	}

	strength := s.params.ChargeStrength
	pairwise := func(p1, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		if p1 == p2 {
			return r2.Vec{}
		}
		l := v.X*v.X + v.Y*v.Y
		if l == 0 {
			v = r2.Vec{X: s.jiggle(), Y: s.jiggle()}
			l = v.X*v.X + v.Y*v.Y
		}
		if l < distanceMin2 {
			l = math.Sqrt(distanceMin2 * l)
		}
		return r2.Scale(strength*m2/l, v)
	}

	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		s.applyChargeDirect(particles, pairwise, alpha)
		return
	}

	for i, p := range particles {
		f := plane.ForceOn(p, s.opts.Theta, pairwise)
		s.nodes[i].VX += f.X * alpha
		s.nodes[i].VY += f.Y * alpha
	}
}

// applyChargeDirect is the exact O(n²) fallback used when the quadtree cannot
// be built.
func (s *Simulation) applyChargeDirect(particles []barneshut.Particle2, f barneshut.Force2, alpha float64) {
	for i, p := range particles {
		var sum r2.Vec
		pv := p.Coord2()
		for _, q := range particles {
			sum = r2.Add(sum, f(p, q, 1, 1, r2.Sub(q.Coord2(), pv)))
		}
		s.nodes[i].VX += sum.X * alpha
		s.nodes[i].VY += sum.Y * alpha
	}
}
