package autolabel

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
	"github.com/ironsheep/deepsight-tools/internal/labels"
)

var (
	// ErrInvalidROI is returned when the ROI has no area inside the image.
	ErrInvalidROI = errors.New("autolabel: ROI has no area inside the image")

	// ErrNoEdges is returned when the crop contains no edge pixels.
	ErrNoEdges = errors.New("autolabel: no edge pixels found in the ROI")
)

// EdgeLabel is the result of FromEdges.
type EdgeLabel struct {
	// Crop is the ROI of the source image; the label is relative to it.
	Crop *image.NRGBA

	// Bounds is the edge bounding rectangle in crop coordinates.
	Bounds geometry.Rect

	Box labels.NormalizedBox
}

// FromEdges labels the object inside roi of img.
//
// The ROI is clamped to the image, cropped, edge-mapped with the given Canny
// thresholds and closed with a 3x3 kernel. The bounding rectangle of every
// remaining edge pixel is normalized against the crop size with class as its
// index. A bounding rectangle covering at least 95% of the crop on both axes
// yields labels.ErrWholeFrame.
func FromEdges(img image.Image, roi geometry.Rect, threshold1, threshold2, class int) (EdgeLabel, error) {
	r := geometry.ClampRect(roi, geometry.SizeOf(img))
	if r.Empty() {
		return EdgeLabel{}, fmt.Errorf("%w: %s", ErrInvalidROI, roi)
	}
	crop := imaging.Crop(img, r.Image().Add(img.Bounds().Min))

	edges := imgio.CloseEdges(imgio.EdgeMap(crop, threshold1, threshold2))
	bounds, ok := imgio.EdgeBounds(edges)
	if !ok {
		return EdgeLabel{}, ErrNoEdges
	}

	box, err := labels.ToNormalized(bounds, geometry.SizeOf(crop), class, 0)
	if err != nil {
		return EdgeLabel{}, err
	}
	return EdgeLabel{Crop: crop, Bounds: bounds, Box: box}, nil
}
