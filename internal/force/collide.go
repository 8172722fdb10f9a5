package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// bodyPoint is a node position in the collision k-d tree.
type bodyPoint struct {
	X, Y  float64
	Index int
}

func (p bodyPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(bodyPoint)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

func (p bodyPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance.
func (p bodyPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(bodyPoint)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

type bodyPoints []bodyPoint

func (p bodyPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p bodyPoints) Len() int                      { return len(p) }
func (p bodyPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p bodyPoints) Pivot(d kdtree.Dim) int {
	return bodyPlane{dim: d, points: p}.Pivot()
}

// bodyPlane sorts points along one dimension for tree construction.
type bodyPlane struct {
	dim    kdtree.Dim
	points bodyPoints
}

func (p bodyPlane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}
func (p bodyPlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p bodyPlane) Len() int      { return len(p.points) }
func (p bodyPlane) Pivot() int    { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p bodyPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// applyCollide separates overlapping circles by moving their positions
// directly. Pinned axes do not move; the partner absorbs the correction.
func (s *Simulation) applyCollide() {
	if len(s.nodes) < 2 || s.opts.CollideStrength == 0 {
		return
	}

	points := make(bodyPoints, len(s.nodes))
	maxR := 0.0
	for i := range s.nodes {
		points[i] = bodyPoint{X: s.nodes[i].X, Y: s.nodes[i].Y, Index: i}
		maxR = math.Max(maxR, s.radius(i))
	}
	tree := kdtree.New(points, false)

	for i := range s.nodes {
		ri := s.radius(i)
		reach := ri + maxR
		keeper := kdtree.NewDistKeeper(reach * reach)
		tree.NearestSet(keeper, bodyPoint{X: s.nodes[i].X, Y: s.nodes[i].Y, Index: i})

		for _, c := range keeper.Heap {
			if c.Comparable == nil {
				continue
			}
			j := c.Comparable.(bodyPoint).Index
			if j <= i {
				continue
			}
			s.separate(i, j, ri, s.radius(j))
		}
	}
}

func (s *Simulation) separate(i, j int, ri, rj float64) {
	a, b := &s.nodes[i], &s.nodes[j]
	dx, dy := b.X-a.X, b.Y-a.Y
	r := ri + rj
	l2 := dx*dx + dy*dy
	if l2 >= r*r {
		return
	}
	if l2 == 0 {
		dx, dy = s.jiggle(), s.jiggle()
		l2 = dx*dx + dy*dy
	}
	l := math.Sqrt(l2)
	k := (r - l) / l * s.opts.CollideStrength
	cx, cy := dx*k, dy*k

	// Larger circles move less.
	shareA := rj * rj / (ri*ri + rj*rj)
	moveAxis(&a.X, &b.X, cx, shareA, a.pinnedOnX(), b.pinnedOnX())
	moveAxis(&a.Y, &b.Y, cy, shareA, a.pinnedOnY(), b.pinnedOnY())
}

// moveAxis splits a correction c along one axis: a moves by -c*share and b
// by +c*(1-share), unless one side is pinned.
func moveAxis(a, b *float64, c, share float64, aPinned, bPinned bool) {
	switch {
	case aPinned && bPinned:
	case aPinned:
		*b += c
	case bPinned:
		*a -= c
	default:
		*a -= c * share
		*b += c * (1 - share)
	}
}

func (n *Node) pinnedOnX() bool {
	_, ok := n.PinnedX()
	return ok
}

func (n *Node) pinnedOnY() bool {
	_, ok := n.PinnedY()
	return ok
}
