package engine

import (
	"fmt"
	"math"
)

// lookupLocked resolves id to its node index.
func (e *Engine) lookupLocked(id string) (int, error) {
	if e.state == stateDisposed {
		return 0, ErrDisposed
	}
	if e.graph == nil || e.sim == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	i, ok := e.graph.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	return i, nil
}

// BeginDrag captures the entity's current position into a drag pin and, if
// no other drag is in progress, reheats the solver so neighbours relax
// around it. Anchors keep their timeline x; when vertical anchor drags are
// disabled the anchor ignores the drag entirely.
func (e *Engine) BeginDrag(id string) error {
	e.mu.Lock()
	i, err := e.lookupLocked(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if e.dragging[i] {
		e.mu.Unlock()
		return nil
	}

	reheat := len(e.dragging) == 0
	e.dragging[i] = true
	n := e.sim.Node(i)
	if !n.Anchored() || e.cfg.Interaction.AnchorVerticalDrag {
		n.Grab()
	}
	target := e.cfg.Simulation.DragAlphaTarget
	if reheat {
		e.sim.SetAlphaTarget(target)
		e.active = true
	}
	e.mu.Unlock()

	e.logger.Debug("drag start", "id", id)
	if reheat {
		e.logger.Debug("reheat", "alpha_target", target)
		e.wakeLoop()
	}
	return nil
}

// DragTo moves the drag pin to (x, y) in simulation coordinates.
func (e *Engine) DragTo(id string, x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.lookupLocked(id)
	if err != nil {
		return err
	}
	if !e.dragging[i] {
		return nil
	}
	e.sim.Node(i).DragTo(x, y)
	return nil
}

// EndDrag releases the drag pin. Satellites become free; anchors return to
// their timeline pin. When the last drag ends the solver cools.
func (e *Engine) EndDrag(id string) error {
	e.mu.Lock()
	i, err := e.lookupLocked(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if !e.dragging[i] {
		e.mu.Unlock()
		return nil
	}
	delete(e.dragging, i)
	e.sim.Node(i).Release()
	cool := len(e.dragging) == 0
	if cool {
		e.sim.SetAlphaTarget(0)
	}
	e.mu.Unlock()

	e.logger.Debug("drag end", "id", id)
	if cool {
		e.logger.Debug("cool")
	}
	return nil
}

// Dragging reports whether id is being dragged.
func (e *Engine) Dragging(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return false
	}
	i, ok := e.graph.Lookup(id)
	return ok && e.dragging[i]
}

// Select raises the selection callback with the entity's full record.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	i, err := e.lookupLocked(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	ent := e.graph.Entities[i].Clone()
	fn := e.onSelect
	e.mu.Unlock()

	e.logger.Debug("select", "id", id)
	if fn != nil {
		fn(ent)
	}
	return nil
}

// EntityAt returns the topmost entity whose circle contains (x, y) in
// simulation coordinates. Later entities are drawn above earlier ones. When
// no circle contains the point, the entity whose edge is nearest, within
// slop simulation units, is returned instead.
func (e *Engine) EntityAt(x, y, slop float64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sim == nil {
		return "", false
	}
	best, bestGap := -1, math.Inf(1)
	for i := len(e.graph.Entities) - 1; i >= 0; i-- {
		n := e.sim.Node(i)
		gap := math.Hypot(x-n.X, y-n.Y) - e.styles[i].Radius
		if gap <= 0 {
			return e.graph.Entities[i].ID, true
		}
		if gap <= slop && gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best < 0 {
		return "", false
	}
	return e.graph.Entities[best].ID, true
}

// Position returns the current simulated position of id.
func (e *Engine) Position(id string) (x, y float64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.lookupLocked(id)
	if err != nil {
		return 0, 0, err
	}
	n := e.sim.Node(i)
	return n.X, n.Y, nil
}
