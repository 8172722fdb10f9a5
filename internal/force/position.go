package force

// applyPosition pulls each node toward its target x and the shared target y.
// The vertical pull is YStrengthRatio of the horizontal one.
func (s *Simulation) applyPosition(alpha float64) {
	kx := s.params.PositionStrength * alpha
	ky := s.params.PositionStrength * YStrengthRatio * alpha
	for i := range s.nodes {
		n := &s.nodes[i]
		n.VX += (s.targetX[i] - n.X) * kx
		n.VY += (s.targetY - n.Y) * ky
	}
}
