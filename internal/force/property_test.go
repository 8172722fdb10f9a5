package force

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestSimulation_AnchorsNeverLeaveTimeline(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 30).Draw(t, "n")
		nodes := make([]Node, n)
		for i := range nodes {
			nodes[i].X = rapid.Float64Range(0, 1000).Draw(t, "x")
			nodes[i].Y = rapid.Float64Range(0, 800).Draw(t, "y")
		}

		var links []Link
		for i := 0; i < n; i++ {
			j := rapid.IntRange(0, n-1).Draw(t, "target")
			links = append(links, Link{Source: i, Target: j})
		}

		sim := New(nodes, links, DefaultParams(), DefaultOptions())
		anchorX := map[int]float64{}
		for i := 0; i < n; i += 3 {
			x := rapid.Float64Range(50, 1150).Draw(t, "anchorX")
			sim.Node(i).Anchor(x)
			anchorX[i] = x
		}

		for tick := 0; tick < 30; tick++ {
			sim.Tick()
		}
		for i, x := range anchorX {
			if got := sim.Node(i).X; got != x {
				t.Fatalf("anchor %d x = %v, want %v", i, got, x)
			}
		}
		for i := 0; i < n; i++ {
			nd := sim.Node(i)
			if math.IsNaN(nd.X) || math.IsNaN(nd.Y) || math.IsInf(nd.X, 0) || math.IsInf(nd.Y, 0) {
				t.Fatalf("node %d has non-finite position (%v, %v)", i, nd.X, nd.Y)
			}
		}
	})
}
