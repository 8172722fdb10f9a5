package interact

import (
	"math"

	"github.com/matsen/reelgraph/internal/config"
)

// Target is the engine surface the controller drives.
type Target interface {
	EntityAt(x, y, slop float64) (string, bool)
	BeginDrag(id string) error
	DragTo(id string, x, y float64) error
	EndDrag(id string) error
	Select(id string) error
}

// Gesture is the controller's current pointer state.
type Gesture int

const (
	// GestureNone means no pointer is held.
	GestureNone Gesture = iota
	// GesturePress means an entity is pressed but has not moved past the
	// click tolerance.
	GesturePress
	// GestureDrag means an entity is being dragged.
	GestureDrag
	// GesturePan means the empty canvas is being dragged.
	GesturePan
)

// String returns the gesture name.
func (g Gesture) String() string {
	switch g {
	case GesturePress:
		return "press"
	case GestureDrag:
		return "drag"
	case GesturePan:
		return "pan"
	default:
		return "none"
	}
}

// Controller is a single-pointer gesture state machine. A press on an entity
// claims the gesture for that entity, so canvas pan and zoom never run during
// an entity drag. It is not safe for concurrent use; hosts call it from their
// event loop.
type Controller struct {
	target    Target
	zoom      config.Zoom
	tolerance float64
	hitSlop   float64

	view    ViewTransform
	gesture Gesture
	entity  string
	startX  float64
	startY  float64
	lastX   float64
	lastY   float64
}

// NewController creates a controller over target with an identity view.
func NewController(target Target, zoom config.Zoom, in config.Interaction) *Controller {
	return &Controller{
		target:    target,
		zoom:      zoom,
		tolerance: in.ClickTolerance,
		view:      Identity(),
	}
}

// View returns the current view transform.
func (c *Controller) View() ViewTransform {
	return c.view
}

// SetView replaces the view transform, clamping its scale.
func (c *Controller) SetView(t ViewTransform) {
	t.K = Clamp(t.K, c.zoom.MinScale, c.zoom.MaxScale)
	c.view = t
}

// ResetView restores the identity transform.
func (c *Controller) ResetView() {
	c.view = Identity()
}

// SetHitSlop sets how far outside an entity's circle, in screen pixels, a
// press still picks it. Hosts with coarse pointers, such as terminal cells,
// use it so small entities stay clickable.
func (c *Controller) SetHitSlop(px float64) {
	c.hitSlop = math.Max(px, 0)
}

// Gesture returns the current gesture and the entity it owns, if any.
func (c *Controller) Gesture() (Gesture, string) {
	return c.gesture, c.entity
}

// PointerDown starts a gesture at screen point (sx, sy). A gesture still in
// progress is cancelled first; the error from releasing its drag is
// returned, and the new gesture starts regardless.
func (c *Controller) PointerDown(sx, sy float64) error {
	var err error
	if c.gesture != GestureNone {
		err = c.Cancel()
	}
	c.startX, c.startY = sx, sy
	c.lastX, c.lastY = sx, sy

	x, y := c.view.Invert(sx, sy)
	if id, ok := c.target.EntityAt(x, y, c.hitSlop/c.view.K); ok {
		c.gesture = GesturePress
		c.entity = id
		return err
	}
	c.gesture = GesturePan
	return err
}

// PointerMove continues the gesture. A press becomes a drag once the pointer
// leaves the click tolerance.
func (c *Controller) PointerMove(sx, sy float64) error {
	defer func() { c.lastX, c.lastY = sx, sy }()

	switch c.gesture {
	case GesturePress:
		if math.Hypot(sx-c.startX, sy-c.startY) <= c.tolerance {
			return nil
		}
		if err := c.target.BeginDrag(c.entity); err != nil {
			c.reset()
			return err
		}
		c.gesture = GestureDrag
		fallthrough
	case GestureDrag:
		x, y := c.view.Invert(sx, sy)
		return c.target.DragTo(c.entity, x, y)
	case GesturePan:
		c.view = c.view.Translate(sx-c.lastX, sy-c.lastY)
	}
	return nil
}

// PointerUp ends the gesture. A press that never became a drag is a click
// and selects the entity.
func (c *Controller) PointerUp(sx, sy float64) error {
	g, id := c.gesture, c.entity
	c.reset()

	switch g {
	case GesturePress:
		return c.target.Select(id)
	case GestureDrag:
		x, y := c.view.Invert(sx, sy)
		if err := c.target.DragTo(id, x, y); err != nil {
			return err
		}
		return c.target.EndDrag(id)
	}
	return nil
}

// Cancel abandons the gesture, releasing any drag.
func (c *Controller) Cancel() error {
	g, id := c.gesture, c.entity
	c.reset()
	if g == GestureDrag {
		return c.target.EndDrag(id)
	}
	return nil
}

// Wheel zooms about (sx, sy). It is ignored while an entity owns the gesture.
func (c *Controller) Wheel(sx, sy, deltaY float64) bool {
	return c.Pinch(sx, sy, WheelFactor(deltaY, c.zoom.WheelSensitivity))
}

// Pinch zooms by factor about (sx, sy). It is ignored while an entity owns
// the gesture.
func (c *Controller) Pinch(sx, sy, factor float64) bool {
	if c.gesture == GesturePress || c.gesture == GestureDrag {
		return false
	}
	c.view = c.view.ZoomAt(factor, sx, sy, c.zoom.MinScale, c.zoom.MaxScale)
	return true
}

func (c *Controller) reset() {
	c.gesture = GestureNone
	c.entity = ""
}
