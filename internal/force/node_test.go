package force

import "testing"

func TestNode_DragFreeNode(t *testing.T) {
	n := &Node{X: 10, Y: 20}

	n.DragTo(99, 99)
	if n.Pin().State != Free {
		t.Fatalf("DragTo before Grab changed state to %v", n.Pin().State)
	}

	n.Grab()
	if p := n.Pin(); p.State != PinnedByDrag || p.X != 10 || p.Y != 20 {
		t.Fatalf("after Grab pin = %+v", p)
	}

	n.DragTo(50, 60)
	if x, ok := n.PinnedX(); !ok || x != 50 {
		t.Errorf("PinnedX = %v, %v", x, ok)
	}
	if y, ok := n.PinnedY(); !ok || y != 60 {
		t.Errorf("PinnedY = %v, %v", y, ok)
	}

	n.Release()
	if n.Pin().State != Free {
		t.Errorf("after Release state = %v, want free", n.Pin().State)
	}
	if _, ok := n.PinnedX(); ok {
		t.Error("released node should not be pinned on x")
	}
}

func TestNode_DragAnchoredNode(t *testing.T) {
	n := &Node{Y: 200}
	n.Anchor(300)

	if _, ok := n.PinnedY(); ok {
		t.Error("role pin must leave y free")
	}

	n.Grab()
	n.DragTo(900, 50)
	p := n.Pin()
	if p.State != PinnedByDrag || p.X != 300 || p.Y != 50 {
		t.Errorf("dragged anchor pin = %+v, want x held at 300", p)
	}

	n.Release()
	if p := n.Pin(); p.State != PinnedByRole || p.X != 300 {
		t.Errorf("after Release pin = %+v, want role pin at 300", p)
	}
}

func TestNode_ReanchorDuringDrag(t *testing.T) {
	n := &Node{}
	n.Anchor(100)
	n.Grab()
	n.DragTo(0, 40)

	n.Anchor(250)
	if p := n.Pin(); p.State != PinnedByDrag || p.X != 250 || p.Y != 40 {
		t.Errorf("pin = %+v, want drag kept at new anchor x", p)
	}
	n.Release()
	if p := n.Pin(); p.State != PinnedByRole || p.X != 250 {
		t.Errorf("pin = %+v, want role pin at 250", p)
	}
}

func TestPinState_String(t *testing.T) {
	tests := []struct {
		s    PinState
		want string
	}{
		{Free, "free"},
		{PinnedByRole, "pinned_by_role"},
		{PinnedByDrag, "pinned_by_drag"},
		{PinState(9), "PinState(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
