package augment

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Range is an inclusive interval a stage samples uniformly from.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Sample draws a value uniformly from r using rng: Min + (Max-Min)*rng.Float64().
func (r Range) Sample(rng *rand.Rand) float64 {
	return r.Min + (r.Max-r.Min)*rng.Float64()
}

// ordered returns r with Min <= Max.
func (r Range) ordered() Range {
	if r.Min > r.Max {
		return Range{Min: r.Max, Max: r.Min}
	}
	return r
}

// Params holds the augmentation ranges for one capture run.
type Params struct {
	Rotation   Range   `json:"rotation"`   // degrees, counter-clockwise
	Beta       Range   `json:"beta"`       // additive brightness offset
	Alpha      Range   `json:"alpha"`      // multiplicative contrast gain
	Zoom       Range   `json:"zoom"`       // >1 magnifies
	Hue        Range   `json:"hue"`        // fraction of the full hue circle
	Saturation Range   `json:"saturation"` // saturation multiplier
	Translate  Range   `json:"translate"`  // fraction of width/height
	Shear      Range   `json:"shear"`      // degrees
	FlipLR     float64 `json:"flip_lr"`    // probability of a horizontal mirror
}

// DefaultParams returns the ranges used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Rotation:   Range{Min: -15, Max: 15},
		Beta:       Range{Min: -20, Max: 20},
		Alpha:      Range{Min: 1.0, Max: 1.0},
		Zoom:       Range{Min: 1.0, Max: 1.0},
		Hue:        Range{Min: -0.05, Max: 0.05},
		Saturation: Range{Min: 0.9, Max: 1.1},
		Translate:  Range{Min: 0.0, Max: 0.1},
		Shear:      Range{Min: 0.0, Max: 5.0},
		FlipLR:     0.5,
	}
}

// Identity returns ranges under which every stage is a no-op.
func Identity() Params {
	return Params{
		Alpha:      Range{Min: 1, Max: 1},
		Saturation: Range{Min: 1, Max: 1},
	}
}

// Validate orders every range and clamps FlipLR to [0,1].
func (p *Params) Validate() error {
	p.Rotation = p.Rotation.ordered()
	p.Beta = p.Beta.ordered()
	p.Alpha = p.Alpha.ordered()
	p.Zoom = p.Zoom.ordered()
	p.Hue = p.Hue.ordered()
	p.Saturation = p.Saturation.ordered()
	p.Translate = p.Translate.ordered()
	p.Shear = p.Shear.ordered()
	if p.Zoom.Min < 0 {
		p.Zoom.Min = 0
	}
	if p.Zoom.Max < 0 {
		p.Zoom.Max = 0
	}
	if p.FlipLR < 0 {
		p.FlipLR = 0
	}
	if p.FlipLR > 1 {
		p.FlipLR = 1
	}
	return nil
}

// Realized records the values a Chain actually sampled for one sample.
type Realized struct {
	Zoom       float64 `json:"zoom"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Shear      float64 `json:"shear"`
	Flipped    bool    `json:"flipped"`
	Rotation   float64 `json:"rotation"`
}

// Fields returns the realized values as structured log fields.
func (r Realized) Fields() logrus.Fields {
	return logrus.Fields{
		"zoom":        r.Zoom,
		"alpha":       r.Alpha,
		"beta":        r.Beta,
		"hue":         r.Hue,
		"saturation":  r.Saturation,
		"translate_x": r.TranslateX,
		"translate_y": r.TranslateY,
		"shear":       r.Shear,
		"flipped":     r.Flipped,
		"rotation":    r.Rotation,
	}
}
