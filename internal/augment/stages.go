package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// minZoom is the smallest zoom factor that is applied; anything below it is
// treated as "no zoom" to avoid dividing by ~0.
const minZoom = 0.001

// fill is the color of every area revealed by a geometric stage.
var fill = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Crop restricts img to roi clamped to the image bounds. A nil roi, or one
// that clamps to zero area, yields a copy of the full frame.
func Crop(img image.Image, roi *geometry.Rect) *image.NRGBA {
	if roi == nil {
		return imaging.Clone(img)
	}
	r := geometry.ClampRect(*roi, geometry.SizeOf(img))
	if r.Empty() {
		return imaging.Clone(img)
	}
	return imaging.Crop(img, r.Image().Add(img.Bounds().Min))
}

// zoomWindow returns the window [c - n/2, c + n/2) on each axis, where
// n = size/factor truncated and c is the image center. Odd n lose their last
// pixel to the halving. The window is clamped to the image and kept at least
// one pixel wide and tall.
func zoomWindow(w, h int, factor float64) geometry.Rect {
	nw := int(float64(w) / factor)
	nh := int(float64(h) / factor)
	cx, cy := w/2, h/2
	r := geometry.Rect{X1: cx - nw/2, Y1: cy - nh/2, X2: cx + nw/2, Y2: cy + nh/2}
	r.X2 = max(r.X2, r.X1+1)
	r.Y2 = max(r.Y2, r.Y1+1)
	return geometry.ClampRect(r, geometry.Size{W: w, H: h})
}

// Zoom magnifies img about its center by factor and resizes the window back
// to the original size. Factors below 0.001 leave img unchanged, and so does
// any factor whose window covers the whole image: factors below 1, or 1 on
// a frame with even dimensions.
func Zoom(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor < minZoom {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	win := zoomWindow(w, h, factor)
	if win == (geometry.Rect{X2: w, Y2: h}) {
		return img
	}
	return imaging.Resize(imaging.Crop(img, win.Image().Add(img.Bounds().Min)), w, h, imaging.Linear)
}

// BrightnessContrast applies pixel' = clamp(alpha*pixel + beta, 0, 255) per
// channel. Beta is truncated to a whole offset before it is applied.
func BrightnessContrast(img *image.NRGBA, alpha, beta float64) *image.NRGBA {
	offset := float64(int(beta))
	if alpha == 1 && offset == 0 {
		return img
	}
	out := adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: scaleChannel(c.R, alpha, offset),
			G: scaleChannel(c.G, alpha, offset),
			B: scaleChannel(c.B, alpha, offset),
			A: c.A,
		}
	})
	return imaging.Clone(out)
}

func scaleChannel(v uint8, alpha, offset float64) uint8 {
	return clampByte(math.RoundToEven(alpha*float64(v) + offset))
}

// HueSaturation shifts hue by hueDelta of the full hue circle and multiplies
// saturation by satScale, in HSV space. Hue wraps; saturation is clamped to
// [0,1].
func HueSaturation(img *image.NRGBA, hueDelta, satScale float64) *image.NRGBA {
	if hueDelta == 0 && satScale == 1 {
		return img
	}
	shift := hueDelta * 360
	out := adjust.Apply(img, func(c color.RGBA) color.RGBA {
		col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		h, s, v := col.Hsv()
		h = math.Mod(h+shift, 360)
		if h < 0 {
			h += 360
		}
		s = math.Min(math.Max(s*satScale, 0), 1)
		r, g, b := colorful.Hsv(h, s, v).RGB255()
		return color.RGBA{R: r, G: g, B: b, A: c.A}
	})
	return imaging.Clone(out)
}

// Translate shifts img by (txFrac*width, tyFrac*height) pixels, truncated,
// keeping the size and filling the revealed area with black.
func Translate(img *image.NRGBA, txFrac, tyFrac float64) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dx := int(txFrac * float64(w))
	dy := int(tyFrac * float64(h))
	if dx == 0 && dy == 0 {
		return img
	}
	return imaging.Paste(imaging.New(w, h, fill), img, image.Pt(dx, dy))
}

// Shear applies the horizontal shear x' = x + tan(shearDeg)*y. Row 0 stays
// in place and lower rows move right for positive angles. The canvas is
// int(height*tan(shearDeg)) pixels wider (narrower for negative angles),
// revealed pixels are black, and the result is resized back to the
// pre-shear size.
func Shear(img *image.NRGBA, shearDeg float64) *image.NRGBA {
	if shearDeg == 0 {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return imaging.Resize(shearCanvas(img, math.Tan(shearDeg*math.Pi/180)), w, h, imaging.Linear)
}

// shearCanvas maps every destination pixel back to x - t*y in the source and
// interpolates linearly between the two nearest source pixels. Samples
// outside the source are fill.
func shearCanvas(img *image.NRGBA, t float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nw := max(w+int(float64(h)*t), 1)
	out := image.NewNRGBA(image.Rect(0, 0, nw, h))

	at := func(x, y int) color.NRGBA {
		if x < 0 || x >= w {
			return fill
		}
		return img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < nw; x++ {
			sx := float64(x) - t*float64(y)
			x0 := math.Floor(sx)
			fx := sx - x0
			p, q := at(int(x0), y), at(int(x0)+1, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(math.Round(float64(p.R)*(1-fx) + float64(q.R)*fx)),
				G: clampByte(math.Round(float64(p.G)*(1-fx) + float64(q.G)*fx)),
				B: clampByte(math.Round(float64(p.B)*(1-fx) + float64(q.B)*fx)),
				A: clampByte(math.Round(float64(p.A)*(1-fx) + float64(q.A)*fx)),
			})
		}
	}
	return out
}

// FlipH mirrors img left to right when flip is set.
func FlipH(img *image.NRGBA, flip bool) *image.NRGBA {
	if !flip {
		return img
	}
	return imaging.FlipH(img)
}

// Rotate turns img counter-clockwise by angleDeg about its center, keeping
// the size and filling the uncovered corners with black.
func Rotate(img *image.NRGBA, angleDeg float64) *image.NRGBA {
	if angleDeg == 0 {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	return imaging.CropCenter(imaging.Rotate(img, angleDeg, fill), w, h)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
