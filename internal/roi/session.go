// Package roi tracks a region-of-interest rectangle drawn with a pointer on
// a display canvas and converts it into source-image coordinates.
package roi

import (
	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// State is the lifecycle state of a Session.
type State int

const (
	// Idle means no gesture is in progress and no rectangle is held.
	Idle State = iota
	// Dragging means the pointer is down and the rectangle is a live preview.
	Dragging
	// Committed means the pointer was released over a non-empty rectangle.
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Selection is a committed ROI in source space together with its center.
type Selection struct {
	Rect   geometry.Rect  `json:"rect"`
	Center geometry.Point `json:"center"`
}

// Session owns the rectangle of one drag gesture.
//
// Session is not safe for concurrent use; pointer events arrive on a single
// UI goroutine.
type Session struct {
	view      geometry.View
	state     State
	anchor    geometry.Point
	rect      geometry.Rect
	selection Selection
}

// NewSession creates an idle session mapping pointer events through view.
func NewSession(view geometry.View) *Session {
	return &Session{view: view}
}

// SetView replaces the display-to-source mapping, e.g. after a resize or zoom.
// It does not touch a rectangle that is already committed.
func (s *Session) SetView(view geometry.View) {
	s.view = view
}

// View returns the current display-to-source mapping.
func (s *Session) View() geometry.View {
	return s.view
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// PointerDown starts a new gesture at p, discarding any previous rectangle.
func (s *Session) PointerDown(p geometry.DisplayPoint) {
	s.anchor = s.view.ToSource(p)
	s.rect = geometry.Rect{X1: s.anchor.X, Y1: s.anchor.Y, X2: s.anchor.X, Y2: s.anchor.Y}
	s.selection = Selection{}
	s.state = Dragging
}

// PointerMove updates the live preview rectangle while dragging.
// It returns false when no gesture is in progress.
func (s *Session) PointerMove(p geometry.DisplayPoint) (geometry.Rect, bool) {
	if s.state != Dragging {
		return geometry.Rect{}, false
	}
	s.rect = geometry.RectFromCorners(s.anchor, s.view.ToSource(p))
	return s.rect, true
}

// PointerUp finalizes the gesture at p.
//
// The rectangle is clamped to the source bounds. A zero-area result is
// discarded and the session returns to Idle with ok == false.
func (s *Session) PointerUp(p geometry.DisplayPoint) (Selection, bool) {
	if s.state != Dragging {
		return Selection{}, false
	}
	r := geometry.RectFromCorners(s.anchor, s.view.ToSource(p))
	if !s.view.Source.Empty() {
		r = geometry.ClampRect(r, s.view.Source)
	}
	if r.Empty() {
		s.reset()
		return Selection{}, false
	}
	s.rect = r
	s.selection = Selection{Rect: r, Center: r.Center()}
	s.state = Committed
	return s.selection, true
}

// Preview returns the rectangle being dragged, if any.
func (s *Session) Preview() (geometry.Rect, bool) {
	if s.state != Dragging {
		return geometry.Rect{}, false
	}
	return s.rect, true
}

// Selection returns the committed selection, if any.
func (s *Session) Selection() (Selection, bool) {
	if s.state != Committed {
		return Selection{}, false
	}
	return s.selection, true
}

// Reset drops any gesture and returns to Idle.
func (s *Session) Reset() {
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle
	s.rect = geometry.Rect{}
	s.selection = Selection{}
}
