package scene

import "seehuhn.de/go/geom/vec"

// Button identifies a pointer button, numbered as in DOM pointer events.
type Button int

// Pointer buttons.
const (
	ButtonPrimary   Button = 0
	ButtonAuxiliary Button = 1
	ButtonSecondary Button = 2
)

// PointerEvent is a pointer press, move or release in screen pixels.
type PointerEvent struct {
	Pos    vec.Vec2
	Button Button
}

// Primary returns a primary-button event at (x, y).
func Primary(x, y float64) PointerEvent {
	return PointerEvent{Pos: vec.Vec2{X: x, Y: y}, Button: ButtonPrimary}
}

// Handler reacts to one pointer event.
type Handler func(PointerEvent)

// Listeners is the move/release pair a drag registers on the scene root.
// Cancel, if set, runs when another drag tears this one down.
type Listeners struct {
	Move   Handler
	Up     Handler
	Cancel func()
}

type session struct {
	Listeners
	released bool
}

// Acquire registers l as the only active drag session and returns its
// release func. Any session still registered is torn down first and its
// Cancel hook runs. Release is idempotent.
func (s *Scene) Acquire(l Listeners) (release func()) {
	if prev := s.session; prev != nil {
		s.session = nil
		prev.released = true
		if prev.Cancel != nil {
			prev.Cancel()
		}
		s.log.Debug("scene: drag session replaced")
	}
	cur := &session{Listeners: l}
	s.session = cur
	return func() {
		if cur.released {
			return
		}
		cur.released = true
		if s.session == cur {
			s.session = nil
		}
	}
}

// ListenerCount reports how many move/release listeners are registered on
// the root. It is 0 when idle and 2 while a drag is active.
func (s *Scene) ListenerCount() int {
	if s == nil || s.session == nil {
		return 0
	}
	return 2
}

// PointerMove dispatches a move event to the active drag session.
func (s *Scene) PointerMove(ev PointerEvent) {
	if s == nil || s.session == nil || s.session.Move == nil {
		return
	}
	s.session.Move(ev)
}

// PointerUp dispatches a release event to the active drag session.
func (s *Scene) PointerUp(ev PointerEvent) {
	if s == nil || s.session == nil || s.session.Up == nil {
		return
	}
	s.session.Up(ev)
}
