// Package augment synthesizes training images from a captured frame.
//
// A Chain applies a fixed sequence of randomized stages to one frame:
//
//  1. Crop to the ROI (full frame when no ROI is set)
//  2. Centered zoom
//  3. Brightness/contrast (gain alpha, offset beta)
//  4. Hue shift and saturation scale
//  5. Translation with black fill
//  6. Horizontal shear, resized back to the pre-shear size
//  7. Horizontal flip with probability FlipLR
//  8. Rotation about the center with black corners
//
// Later geometric stages operate on the canvas produced by earlier ones, so
// the order is part of the contract. Each stage samples its own values from
// its configured range and never observes another stage's sample.
//
// # Determinism
//
// All randomness comes from the *rand.Rand handed to the Chain. The same seed,
// Params, and input frame produce byte-identical output. A stage whose sampled
// value is the identity (zoom below 0.001, alpha 1 with beta 0, zero shear,
// and so on) returns its input unchanged.
//
// # Pixel Format
//
// Stages accept any image.Image and return *image.NRGBA with opaque alpha.
package augment
