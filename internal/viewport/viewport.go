// Package viewport owns the pan and zoom state of the page view.
package viewport

import (
	"log/slog"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/units"
)

// Zoom factors used by the zoom buttons.
const (
	ZoomIn  = 1.5
	ZoomOut = 0.667
)

// Controller holds the view scale and offset shared by every group of the
// page. The offset is in page-local pixels; the view transform is
// scale(s) translate(offset).
type Controller struct {
	root   *scene.Scene
	scale  float64
	offset vec.Vec2

	panning bool
	anchor  vec.Vec2
	release func()
	log     *slog.Logger
}

// New returns a controller for root at scale 1 and zero offset. root may be
// nil; operations then have no effect until Attach is called.
func New(root *scene.Scene, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{root: root, scale: 1, log: logger}
	c.apply()
	return c
}

// Attach binds the controller to a scene root and pushes the current view
// transform to it.
func (c *Controller) Attach(root *scene.Scene) {
	c.endSession()
	c.root = root
	c.apply()
}

// Scale returns the current zoom factor.
func (c *Controller) Scale() float64 { return c.scale }

// Offset returns the current pan offset in page-local pixels.
func (c *Controller) Offset() vec.Vec2 { return c.offset }

// Panning reports whether a pan drag is in progress.
func (c *Controller) Panning() bool { return c.panning }

// Transform returns the view transform stack.
func (c *Controller) Transform() []units.Op {
	return []units.Op{
		units.Scale(c.scale, c.scale),
		units.Translate(c.offset.X, c.offset.Y),
	}
}

func (c *Controller) missingRoot(op string) bool {
	if c.root != nil {
		return false
	}
	c.log.Debug("viewport: no scene root", slog.String("op", op))
	return true
}

func (c *Controller) apply() {
	if c.root != nil {
		c.root.SetTransform(c.Transform())
	}
}

// Zoom multiplies the scale by factor. The offset is left alone, so the
// zoom is centred on the coordinate origin. Factors that are not finite
// and positive are ignored.
func (c *Controller) Zoom(factor float64) {
	if c.missingRoot("zoom") || !(factor > 0) || math.IsInf(factor, 1) {
		return
	}
	c.scale *= factor
	c.apply()
}

// ResetView restores scale 1 and zero offset.
func (c *Controller) ResetView() {
	if c.missingRoot("reset") {
		return
	}
	c.scale = 1
	c.offset = vec.Vec2{}
	c.apply()
}

// BeginPan starts a pan on a primary-button press. Other buttons are
// ignored. Any other drag session on the root is torn down first.
func (c *Controller) BeginPan(ev scene.PointerEvent) bool {
	if c.missingRoot("pan") || ev.Button != scene.ButtonPrimary {
		return false
	}
	c.endSession()
	// Anchor so that the current offset is kept at the press position.
	c.anchor = ev.Pos.Sub(c.offset.Mul(c.scale))
	c.panning = true
	c.release = c.root.Acquire(scene.Listeners{
		Move: c.UpdatePan,
		Up:   c.EndPan,
		Cancel: func() {
			c.panning = false
			c.release = nil
		},
	})
	return true
}

// UpdatePan recomputes the offset from the pointer position.
func (c *Controller) UpdatePan(ev scene.PointerEvent) {
	if !c.panning {
		return
	}
	c.track(ev.Pos)
}

// EndPan applies the final pointer position and releases the pan's
// listeners on a primary-button release. Other buttons are ignored.
func (c *Controller) EndPan(ev scene.PointerEvent) {
	if !c.panning || ev.Button != scene.ButtonPrimary {
		return
	}
	c.track(ev.Pos)
	c.endSession()
}

func (c *Controller) track(pos vec.Vec2) {
	c.offset = pos.Sub(c.anchor).Mul(1 / c.scale)
	c.apply()
}

func (c *Controller) endSession() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.panning = false
}
