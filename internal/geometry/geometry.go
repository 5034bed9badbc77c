package geometry

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Default capture resolution used when a resolution string cannot be parsed.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Point is a pixel coordinate in source-image space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DisplayPoint is a pixel coordinate in display (canvas) space.
type DisplayPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is the width and height of a space in pixels.
type Size struct {
	W int `json:"width"`
	H int `json:"height"`
}

// Empty reports whether the size has zero area.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// SizeOf returns the size of an image's bounds.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: b.Dx(), H: b.Dy()}
}

// ParseSize parses a "WIDTHxHEIGHT" resolution string such as "1280x720".
// Malformed input yields DefaultWidth x DefaultHeight.
func ParseSize(s string) Size {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Size{W: DefaultWidth, H: DefaultHeight}
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Size{W: DefaultWidth, H: DefaultHeight}
	}
	return Size{W: w, H: h}
}

// Rect is an axis-aligned rectangle in source-image space.
//
// A well-formed Rect has X1 <= X2 and Y1 <= Y2; use Normalize or
// RectFromCorners to obtain one from arbitrary corners.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// RectFromCorners builds the rectangle spanned by two opposite corners,
// in any order.
func RectFromCorners(a, b Point) Rect {
	return Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}.Normalize()
}

// Normalize returns r with its corners ordered so X1 <= X2 and Y1 <= Y2.
func (r Rect) Normalize() Rect {
	return Rect{
		X1: min(r.X1, r.X2),
		Y1: min(r.Y1, r.Y2),
		X2: max(r.X1, r.X2),
		Y2: max(r.Y1, r.Y2),
	}
}

// Dx returns the rectangle width.
func (r Rect) Dx() int { return r.X2 - r.X1 }

// Dy returns the rectangle height.
func (r Rect) Dy() int { return r.Y2 - r.Y1 }

// Area returns the rectangle area, or 0 for a degenerate rectangle.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Center returns the integer midpoint ((x1+x2)/2, (y1+y2)/2).
func (r Rect) Center() Point {
	return Point{X: floorDiv(r.X1+r.X2, 2), Y: floorDiv(r.Y1+r.Y2, 2)}
}

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// ClampRect clips r to [0, bounds.W] x [0, bounds.H].
//
// A rectangle lying entirely outside the bounds collapses onto the nearest
// edge and comes back with zero area; ClampRect never fails.
func ClampRect(r Rect, bounds Size) Rect {
	r = r.Normalize()
	return Rect{
		X1: clamp(r.X1, 0, bounds.W),
		Y1: clamp(r.Y1, 0, bounds.H),
		X2: clamp(r.X2, 0, bounds.W),
		Y2: clamp(r.Y2, 0, bounds.H),
	}
}

// FitScale returns the uniform scale that fits content inside target while
// preserving aspect ratio: min(target.W/content.W, target.H/content.H).
// An empty content size yields 0.
func FitScale(content, target Size) float64 {
	if content.Empty() {
		return 0
	}
	sx := float64(target.W) / float64(content.W)
	sy := float64(target.H) / float64(content.H)
	return min(sx, sy)
}

// View describes how a source image is mapped onto a display canvas.
//
// The display stretches the source to Display size, then applies Zoom and
// shifts the result by Pan (in display pixels).
type View struct {
	Display Size         `json:"display"`
	Source  Size         `json:"source"`
	Zoom    float64      `json:"zoom"`
	Pan     DisplayPoint `json:"pan"`
}

// NewView returns an unzoomed, unpanned view.
func NewView(display, source Size) View {
	return View{Display: display, Source: source, Zoom: 1}
}

func (v View) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToSource maps a display point into source space.
//
// When the display has zero area (the widget has not been laid out yet) the
// raw display coordinates are returned unchanged.
func (v View) ToSource(p DisplayPoint) Point {
	if v.Display.Empty() {
		return Point{X: p.X, Y: p.Y}
	}
	z := v.zoom()
	sx := float64(v.Source.W) / float64(v.Display.W)
	sy := float64(v.Source.H) / float64(v.Display.H)
	return Point{
		X: int(float64(p.X-v.Pan.X) / z * sx),
		Y: int(float64(p.Y-v.Pan.Y) / z * sy),
	}
}

// ToDisplay maps a source point into display space, the inverse of ToSource
// up to truncation.
func (v View) ToDisplay(p Point) DisplayPoint {
	if v.Display.Empty() || v.Source.Empty() {
		return DisplayPoint{X: p.X, Y: p.Y}
	}
	z := v.zoom()
	sx := float64(v.Display.W) / float64(v.Source.W)
	sy := float64(v.Display.H) / float64(v.Source.H)
	return DisplayPoint{
		X: int(float64(p.X)*sx*z) + v.Pan.X,
		Y: int(float64(p.Y)*sy*z) + v.Pan.Y,
	}
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
