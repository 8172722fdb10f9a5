package force

import (
	"math"
	"testing"
)

func distance(a, b *Node) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// onlyParams isolates one force by zeroing the others.
func onlyParams(link, charge, collide, position float64) Params {
	return Params{LinkDistance: link, ChargeStrength: charge, CollisionRadius: collide, PositionStrength: position}
}

func TestSimulation_AlphaSchedule(t *testing.T) {
	nodes := []Node{{X: 0, Y: 0}, {X: 50, Y: 10}}
	sim := New(nodes, nil, DefaultParams(), DefaultOptions())

	if sim.Alpha() != 1 {
		t.Fatalf("initial alpha = %v, want 1", sim.Alpha())
	}

	prev := sim.Alpha()
	ticks := 0
	for !sim.Settled() {
		sim.Tick()
		ticks++
		if sim.Alpha() >= prev {
			t.Fatalf("alpha did not decay at tick %d: %v -> %v", ticks, prev, sim.Alpha())
		}
		prev = sim.Alpha()
		if ticks > 1000 {
			t.Fatal("simulation never settled")
		}
	}
	if ticks < 290 || ticks > 310 {
		t.Errorf("settled after %d ticks, want about 300", ticks)
	}
}

func TestSimulation_AlphaTargetHoldsTemperature(t *testing.T) {
	sim := New([]Node{{}, {X: 10}}, nil, DefaultParams(), DefaultOptions())
	sim.SetAlpha(0.01)
	sim.SetAlphaTarget(0.3)
	for i := 0; i < 500; i++ {
		sim.Tick()
	}
	if math.Abs(sim.Alpha()-0.3) > 0.01 {
		t.Errorf("alpha = %v, want close to target 0.3", sim.Alpha())
	}
	if sim.Settled() {
		t.Error("simulation with a hot target must not settle")
	}
}

func TestSimulation_LinkPullsTowardDistance(t *testing.T) {
	nodes := []Node{{X: 0, Y: 0}, {X: 400, Y: 0}}
	sim := New(nodes, []Link{{Source: 0, Target: 1}}, onlyParams(100, 0, 0, 0), DefaultOptions())

	before := distance(sim.Node(0), sim.Node(1))
	for i := 0; i < 300; i++ {
		sim.Tick()
	}
	after := distance(sim.Node(0), sim.Node(1))

	if after >= before {
		t.Errorf("distance grew from %v to %v", before, after)
	}
	if math.Abs(after-100) > 5 {
		t.Errorf("settled distance = %v, want about 100", after)
	}
}

func TestSimulation_ChargeRepels(t *testing.T) {
	nodes := []Node{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 8}}
	sim := New(nodes, nil, onlyParams(0, -200, 0, 0), DefaultOptions())

	d01 := distance(sim.Node(0), sim.Node(1))
	for i := 0; i < 20; i++ {
		sim.Tick()
	}
	if got := distance(sim.Node(0), sim.Node(1)); got <= d01 {
		t.Errorf("repulsion did not separate nodes: %v -> %v", d01, got)
	}
}

func TestSimulation_ChargeMatchesDirectSum(t *testing.T) {
	// With a zero opening angle the quadtree visits every leaf, so it must
	// agree with the direct pairwise sum.
	layout := []Node{{X: 0, Y: 0}, {X: 30, Y: 5}, {X: -20, Y: 40}, {X: 60, Y: -10}}

	opts := DefaultOptions()
	opts.Theta = 1e-9
	tree := New(append([]Node(nil), layout...), nil, onlyParams(0, -100, 0, 0), opts)
	tree.applyCharge(1)

	direct := New(append([]Node(nil), layout...), nil, onlyParams(0, -100, 0, 0), opts)
	for i := range direct.nodes {
		for j := range direct.nodes {
			if i == j {
				continue
			}
			dx := direct.nodes[j].X - direct.nodes[i].X
			dy := direct.nodes[j].Y - direct.nodes[i].Y
			l := dx*dx + dy*dy
			direct.nodes[i].VX += dx * -100 / l
			direct.nodes[i].VY += dy * -100 / l
		}
	}

	for i := range layout {
		if math.Abs(tree.nodes[i].VX-direct.nodes[i].VX) > 1e-9 || math.Abs(tree.nodes[i].VY-direct.nodes[i].VY) > 1e-9 {
			t.Errorf("node %d: tree (%v, %v), direct (%v, %v)", i,
				tree.nodes[i].VX, tree.nodes[i].VY, direct.nodes[i].VX, direct.nodes[i].VY)
		}
	}
}

func TestSimulation_PositionPull(t *testing.T) {
	sim := New([]Node{{X: 0, Y: 0}}, nil, onlyParams(0, 0, 0, 0.3), DefaultOptions())
	sim.SetTargets([]float64{500}, 200)

	for i := 0; i < 300; i++ {
		sim.Tick()
	}
	n := sim.Node(0)
	if math.Abs(n.X-500) > 5 {
		t.Errorf("x = %v, want about 500", n.X)
	}
	if n.Y <= 0 || n.Y > 200 {
		t.Errorf("y = %v, want pulled toward 200", n.Y)
	}
	if 500-n.X > 200-n.Y {
		t.Errorf("vertical pull should be weaker: dx left %v, dy left %v", 500-n.X, 200-n.Y)
	}
}

func TestSimulation_CollisionSeparates(t *testing.T) {
	nodes := []Node{{X: 100, Y: 100}, {X: 110, Y: 100}}
	sim := New(nodes, nil, onlyParams(0, 0, 30, 0), DefaultOptions())
	sim.Tick()

	if got := distance(sim.Node(0), sim.Node(1)); got < 60-1e-6 {
		t.Errorf("distance after one tick = %v, want >= 60", got)
	}
}

func TestSimulation_CollisionRespectsPins(t *testing.T) {
	nodes := []Node{{X: 100, Y: 100}, {X: 110, Y: 100}}
	sim := New(nodes, nil, onlyParams(0, 0, 30, 0), DefaultOptions())
	sim.Node(0).Anchor(100)
	sim.Tick()

	if sim.Node(0).X != 100 {
		t.Errorf("anchored x moved to %v", sim.Node(0).X)
	}
	if sim.Node(1).X < 160-1e-6 {
		t.Errorf("free node x = %v, want pushed to >= 160", sim.Node(1).X)
	}
}

func TestSimulation_MinRadius(t *testing.T) {
	nodes := []Node{{X: 0, Y: 0, MinRadius: 50}, {X: 40, Y: 0}}
	sim := New(nodes, nil, onlyParams(0, 0, 10, 0), DefaultOptions())
	sim.Tick()

	if got := distance(sim.Node(0), sim.Node(1)); got < 60-1e-6 {
		t.Errorf("distance = %v, want >= 50+10", got)
	}
}

func TestSimulation_AnchorStaysOnTimeline(t *testing.T) {
	nodes := []Node{{X: 300, Y: 200}, {X: 310, Y: 200}, {X: 290, Y: 210}}
	sim := New(nodes, []Link{{0, 1}, {0, 2}}, DefaultParams(), DefaultOptions())
	sim.Node(0).Anchor(300)
	sim.SetTargets([]float64{300, 600, 600}, 200)

	for i := 0; i < 100; i++ {
		sim.Tick()
		if x := sim.Node(0).X; x != 300 {
			t.Fatalf("tick %d: anchor x = %v, want 300", i, x)
		}
	}
	if sim.Node(0).Pin().State != PinnedByRole {
		t.Errorf("anchor pin state = %v", sim.Node(0).Pin().State)
	}
}

func TestSimulation_SetParamsKeepsPositions(t *testing.T) {
	nodes := []Node{{X: 0, Y: 0}, {X: 80, Y: 20}}
	sim := New(nodes, []Link{{0, 1}}, DefaultParams(), DefaultOptions())
	for i := 0; i < 10; i++ {
		sim.Tick()
	}
	x0, y0 := sim.Node(0).X, sim.Node(0).Y

	p := DefaultParams()
	p.LinkDistance = 250
	sim.SetParams(p)

	if sim.Node(0).X != x0 || sim.Node(0).Y != y0 {
		t.Error("SetParams moved nodes")
	}
	if sim.Params().LinkDistance != 250 {
		t.Errorf("LinkDistance = %v, want 250", sim.Params().LinkDistance)
	}
}

func TestNew_FiltersBadLinks(t *testing.T) {
	sim := New([]Node{{}, {X: 1}}, []Link{{0, 1}, {0, 0}, {0, 5}, {-1, 1}}, DefaultParams(), DefaultOptions())
	if got := len(sim.Links()); got != 1 {
		t.Errorf("got %d links, want 1", got)
	}
}

func TestSimulation_Deterministic(t *testing.T) {
	run := func() (float64, float64) {
		nodes := []Node{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 5, Y: 5}}
		sim := New(nodes, []Link{{0, 1}}, DefaultParams(), DefaultOptions())
		for i := 0; i < 50; i++ {
			sim.Tick()
		}
		return sim.Node(1).X, sim.Node(1).Y
	}
	x1, y1 := run()
	x2, y2 := run()
	if x1 != x2 || y1 != y2 {
		t.Errorf("same seed gave (%v, %v) and (%v, %v)", x1, y1, x2, y2)
	}
}
