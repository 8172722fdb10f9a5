package force

import "math"

// initLinks derives per-link strength and bias from endpoint degrees, so hubs
// are pulled less than leaves.
func (s *Simulation) initLinks() {
	degree := make([]int, len(s.nodes))
	for _, l := range s.links {
		degree[l.Source]++
		degree[l.Target]++
	}

	s.linkStrength = make([]float64, len(s.links))
	s.linkBias = make([]float64, len(s.links))
	for i, l := range s.links {
		ds, dt := float64(degree[l.Source]), float64(degree[l.Target])
		s.linkStrength[i] = 1 / math.Min(ds, dt)
		s.linkBias[i] = ds / (ds + dt)
	}
}

// applyLinks pulls each link's endpoints toward LinkDistance apart.
func (s *Simulation) applyLinks(alpha float64) {
	for i, l := range s.links {
		src, tgt := &s.nodes[l.Source], &s.nodes[l.Target]

		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}

		d := math.Sqrt(x*x + y*y)
		k := (d - s.params.LinkDistance) / d * alpha * s.linkStrength[i]
		x *= k
		y *= k

		bias := s.linkBias[i]
		tgt.VX -= x * bias
		tgt.VY -= y * bias
		src.VX += x * (1 - bias)
		src.VY += y * (1 - bias)
	}
}
