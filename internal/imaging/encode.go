package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// ThumbnailWidth is the width of frames returned inline by tools.
const ThumbnailWidth = 200

// EncodedImage is an image ready to embed in a JSON tool response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// EncodeThumbnail scales img to width pixels wide, preserving the aspect
// ratio, and encodes it. A non-positive width uses ThumbnailWidth. Images
// already narrower than width are encoded at their own size.
func EncodeThumbnail(img image.Image, width int) (*EncodedImage, error) {
	if width <= 0 {
		width = ThumbnailWidth
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	return EncodePNG(img)
}

// CropRegion extracts r from img and optionally rescales it.
//
// Parameters:
//   - img: Source image.
//   - r: Region in image coordinates, corners in either order.
//   - scale: Resize factor applied after cropping; 1 or non-positive keeps
//     the cropped size.
//
// Returns an error when r leaves the image or has no area.
func CropRegion(img image.Image, r geometry.Rect, scale float64) (*EncodedImage, error) {
	r = r.Normalize()
	bounds := img.Bounds()
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > bounds.Dx() || r.Y2 > bounds.Dy() {
		return nil, fmt.Errorf("crop region %s outside image bounds %dx%d", r, bounds.Dx(), bounds.Dy())
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %s: no area", r)
	}

	cropped := imaging.Crop(img, r.Image().Add(bounds.Min))

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}
