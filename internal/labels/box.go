package labels

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// WholeFrameRatio is the fraction of the frame, on both axes, at or above
// which a box is considered a whole-image detection rather than an object.
const WholeFrameRatio = 0.95

var (
	// ErrDegenerateBox is returned when a box has no width or no height after
	// padding and clamping.
	ErrDegenerateBox = errors.New("labels: degenerate box")

	// ErrWholeFrame is returned when a box covers nearly the entire frame.
	ErrWholeFrame = errors.New("labels: box covers the whole frame")

	// ErrMalformedLine is returned by ParseBox for a line that is not a YOLO label.
	ErrMalformedLine = errors.New("labels: malformed label line")
)

// NormalizedBox is one YOLO label: a class index and a center/size box in
// normalized [0,1] coordinates.
type NormalizedBox struct {
	Class   int     `json:"class"`
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// String renders the box as a label-file line without the trailing newline.
func (b NormalizedBox) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", b.Class, b.XCenter, b.YCenter, b.Width, b.Height)
}

// ParseBox parses one label-file line.
func ParseBox(line string) (NormalizedBox, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return NormalizedBox{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	class, err := strconv.Atoi(fields[0])
	if err != nil || class < 0 {
		return NormalizedBox{}, fmt.Errorf("%w: bad class %q", ErrMalformedLine, fields[0])
	}
	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return NormalizedBox{}, fmt.Errorf("%w: bad value %q", ErrMalformedLine, fields[i+1])
		}
	}
	return NormalizedBox{Class: class, XCenter: v[0], YCenter: v[1], Width: v[2], Height: v[3]}, nil
}

// ToNormalized converts a source-space rectangle into a YOLO label for a
// frame of the given size.
//
// Parameters:
//   - r: box in source pixels; corners in any order
//   - frame: dimensions of the image the label belongs to
//   - class: class index from the Registry
//   - padding: fraction of the box's own width and height added on each side,
//     computed in pixels and truncated; negative values are treated as 0
//
// The padded box is clamped to the frame. ErrDegenerateBox is returned when
// the clamped box has no width or height, and ErrWholeFrame when it spans at
// least WholeFrameRatio of the frame on both axes. Both mean "no usable
// label" to callers.
func ToNormalized(r geometry.Rect, frame geometry.Size, class int, padding float64) (NormalizedBox, error) {
	if frame.Empty() {
		return NormalizedBox{}, ErrDegenerateBox
	}
	r = PadRect(r, padding, frame)

	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return NormalizedBox{}, ErrDegenerateBox
	}
	fw, fh := float64(frame.W), float64(frame.H)
	if float64(w) >= WholeFrameRatio*fw && float64(h) >= WholeFrameRatio*fh {
		return NormalizedBox{}, fmt.Errorf("%w: %v in %v", ErrWholeFrame, r, frame)
	}

	return NormalizedBox{
		Class:   class,
		XCenter: float64(r.X1+r.X2) / 2 / fw,
		YCenter: float64(r.Y1+r.Y2) / 2 / fh,
		Width:   float64(w) / fw,
		Height:  float64(h) / fh,
	}, nil
}

// PadRect grows r by int(width*padding) horizontally and int(height*padding)
// vertically on each side, then clamps it to frame.
func PadRect(r geometry.Rect, padding float64, frame geometry.Size) geometry.Rect {
	r = r.Normalize()
	if padding > 0 {
		px := int(float64(r.Dx()) * padding)
		py := int(float64(r.Dy()) * padding)
		r = geometry.Rect{X1: r.X1 - px, Y1: r.Y1 - py, X2: r.X2 + px, Y2: r.Y2 + py}
	}
	return geometry.ClampRect(r, frame)
}

// ToDisplayRect converts a label back into source pixels of a frame of the
// given size, rounding each edge to the nearest pixel. It is the inverse of
// ToNormalized with zero padding.
func ToDisplayRect(b NormalizedBox, frame geometry.Size) geometry.Rect {
	fw, fh := float64(frame.W), float64(frame.H)
	return geometry.Rect{
		X1: int(math.Round((b.XCenter - b.Width/2) * fw)),
		Y1: int(math.Round((b.YCenter - b.Height/2) * fh)),
		X2: int(math.Round((b.XCenter + b.Width/2) * fw)),
		Y2: int(math.Round((b.YCenter + b.Height/2) * fh)),
	}
}
