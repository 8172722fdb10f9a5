package force

import "fmt"

// PinState tags how a node's integration is overridden.
type PinState int

const (
	// Free nodes integrate on both axes.
	Free PinState = iota
	// PinnedByRole nodes are held on x by their timeline role; y is free.
	PinnedByRole
	// PinnedByDrag nodes are held on both axes at the pointer position.
	PinnedByDrag
)

// String returns a readable name for the state.
func (s PinState) String() string {
	switch s {
	case Free:
		return "free"
	case PinnedByRole:
		return "pinned_by_role"
	case PinnedByDrag:
		return "pinned_by_drag"
	default:
		return fmt.Sprintf("PinState(%d)", int(s))
	}
}

// Pin is the current override of a node's simulated position.
type Pin struct {
	State PinState
	X, Y  float64 // X is used by PinnedByRole and PinnedByDrag, Y only by PinnedByDrag
}

// Node is the solver state of one entity.
type Node struct {
	X, Y   float64
	VX, VY float64

	// MinRadius is an explicit collision radius; the effective radius is the
	// larger of this and the configured collision radius.
	MinRadius float64

	pin      Pin
	anchored bool
	anchorX  float64
}

// Pin returns the node's current pin.
func (n *Node) Pin() Pin {
	return n.pin
}

// Anchored reports whether the node carries a timeline role.
func (n *Node) Anchored() bool {
	return n.anchored
}

// PinnedX returns the held x coordinate, if any.
func (n *Node) PinnedX() (float64, bool) {
	switch n.pin.State {
	case PinnedByRole, PinnedByDrag:
		return n.pin.X, true
	default:
		return 0, false
	}
}

// PinnedY returns the held y coordinate, if any.
func (n *Node) PinnedY() (float64, bool) {
	if n.pin.State == PinnedByDrag {
		return n.pin.Y, true
	}
	return 0, false
}

// Anchor pins the node on x at the given timeline coordinate. The pin
// survives drags; only a new Anchor call moves it.
func (n *Node) Anchor(x float64) {
	n.anchored = true
	n.anchorX = x
	n.X = x
	if n.pin.State == PinnedByDrag {
		n.pin.X = x
		return
	}
	n.pin = Pin{State: PinnedByRole, X: x}
}

// Grab captures the node's current position into a drag pin.
func (n *Node) Grab() {
	x := n.X
	if n.anchored {
		x = n.anchorX
	}
	n.pin = Pin{State: PinnedByDrag, X: x, Y: n.Y}
}

// DragTo moves a drag pin. Anchored nodes keep their timeline x. It is a
// no-op unless the node is grabbed.
func (n *Node) DragTo(x, y float64) {
	if n.pin.State != PinnedByDrag {
		return
	}
	if n.anchored {
		x = n.anchorX
	}
	n.pin.X, n.pin.Y = x, y
}

// Release ends a drag: anchored nodes fall back to their role pin, others
// become free.
func (n *Node) Release() {
	if n.anchored {
		n.pin = Pin{State: PinnedByRole, X: n.anchorX}
		return
	}
	n.pin = Pin{}
}
