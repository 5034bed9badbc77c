package augment

import (
	"errors"
	"image"
	"math/rand"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// ErrEmptyFrame is returned when the input frame has no pixels.
var ErrEmptyFrame = errors.New("augment: empty frame")

// Sample is one synthesized training image and the values that produced it.
type Sample struct {
	Image    *image.NRGBA
	Realized Realized
}

// Chain applies the augmentation stages in their fixed order.
//
// A Chain is not safe for concurrent use: its random source is consumed in a
// fixed sequence per Apply call.
type Chain struct {
	Params Params
	Rand   *rand.Rand
}

// NewChain returns a Chain over params drawing from a source seeded with seed.
func NewChain(params Params, seed int64) *Chain {
	_ = params.Validate()
	return &Chain{Params: params, Rand: rand.New(rand.NewSource(seed))}
}

// Apply produces one sample from frame. roi restricts the sample to a
// source-space rectangle; nil means the full frame.
//
// Values are sampled in this order: zoom, alpha, beta, hue, saturation,
// translate x, translate y, shear, flip, rotation.
func (c *Chain) Apply(frame image.Image, roi *geometry.Rect) (Sample, error) {
	if frame == nil || frame.Bounds().Empty() {
		return Sample{}, ErrEmptyFrame
	}
	p := c.Params
	rng := c.Rand

	var r Realized
	img := Crop(frame, roi)

	r.Zoom = p.Zoom.Sample(rng)
	img = Zoom(img, r.Zoom)

	r.Alpha = p.Alpha.Sample(rng)
	r.Beta = p.Beta.Sample(rng)
	img = BrightnessContrast(img, r.Alpha, r.Beta)

	r.Hue = p.Hue.Sample(rng)
	r.Saturation = p.Saturation.Sample(rng)
	img = HueSaturation(img, r.Hue, r.Saturation)

	r.TranslateX = p.Translate.Sample(rng)
	r.TranslateY = p.Translate.Sample(rng)
	img = Translate(img, r.TranslateX, r.TranslateY)

	r.Shear = p.Shear.Sample(rng)
	img = Shear(img, r.Shear)

	r.Flipped = rng.Float64() < p.FlipLR
	img = FlipH(img, r.Flipped)

	r.Rotation = p.Rotation.Sample(rng)
	img = Rotate(img, r.Rotation)

	return Sample{Image: img, Realized: r}, nil
}
