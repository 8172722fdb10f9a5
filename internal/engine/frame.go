package engine

import (
	"github.com/matsen/reelgraph/internal/config"
	"github.com/matsen/reelgraph/internal/dataset"
	"github.com/matsen/reelgraph/internal/timeline"
	"github.com/matsen/reelgraph/internal/visual"
)

// NodeFrame is the position and style of one entity in a frame.
type NodeFrame struct {
	ID     string       `json:"id"`
	Kind   dataset.Kind `json:"kind"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Pin    string       `json:"pin"`
	Role   string       `json:"role"`
	Radius float64      `json:"radius"`
	Fill   string       `json:"fill"`
	Label  visual.Label `json:"label"`
}

// LinkFrame is a relation with its resolved endpoint coordinates.
type LinkFrame struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Role   string  `json:"role"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// Frame is everything a host needs to draw one tick.
type Frame struct {
	Tick     int                  `json:"tick"`
	Alpha    float64              `json:"alpha"`
	Settled  bool                 `json:"settled"`
	Viewport config.Viewport      `json:"viewport"`
	AxisY    float64              `json:"axis_y"`
	Axis     []timeline.Tick      `json:"axis,omitempty"`
	Nodes    []NodeFrame          `json:"nodes"`
	Links    []LinkFrame          `json:"links"`
	Legend   []visual.LegendEntry `json:"-"`
}

// axisTickCount is the target number of year ticks on the axis.
const axisTickCount = 10

// frameLocked builds a frame from the current state. Callers must hold e.mu.
func (e *Engine) frameLocked() Frame {
	f := Frame{
		Viewport: e.viewport,
		AxisY:    e.viewport.Height - e.viewport.Margins.Bottom,
		Nodes:    []NodeFrame{},
		Links:    []LinkFrame{},
	}
	if e.encoder != nil {
		f.Legend = e.encoder.Legend()
	}
	if e.sim == nil {
		f.Settled = true
		return f
	}

	f.Tick = e.sim.Ticks()
	f.Alpha = e.sim.Alpha()
	f.Settled = !e.active
	f.Axis = e.scale.Ticks(axisTickCount)

	f.Nodes = make([]NodeFrame, len(e.graph.Entities))
	for i := range e.graph.Entities {
		ent := &e.graph.Entities[i]
		n := e.sim.Node(i)
		st := e.styles[i]
		f.Nodes[i] = NodeFrame{
			ID:     ent.ID,
			Kind:   ent.Kind,
			X:      n.X,
			Y:      n.Y,
			Pin:    n.Pin().State.String(),
			Role:   st.Role.String(),
			Radius: st.Radius,
			Fill:   st.Fill,
			Label:  st.Label,
		}
	}

	f.Links = make([]LinkFrame, len(e.graph.Relations))
	for i, r := range e.graph.Relations {
		s, t := e.sim.Node(r.Source), e.sim.Node(r.Target)
		f.Links[i] = LinkFrame{
			Source: r.SourceID,
			Target: r.TargetID,
			Role:   r.Role,
			X1:     s.X,
			Y1:     s.Y,
			X2:     t.X,
			Y2:     t.Y,
		}
	}
	return f
}

// Snapshot returns the current frame.
func (e *Engine) Snapshot() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

// Node returns the frame entry for id.
func (f Frame) Node(id string) (NodeFrame, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeFrame{}, false
}
