// Package transform implements the image operations a RandAugment policy
// draws from.
//
// Every operation is built from a single magnitude by its Constructor and
// returns a Transform. A Transform is deterministic for a fixed magnitude
// except for the sub-parameters it draws from the *rand.Rand given to Apply
// (rotation angle, shift, jitter factor). Output images always keep the
// input's dimensions.
package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
)

// Operation names, as they appear in the policy catalog and in manifests.
const (
	NameIdentity     = "identity"
	NameRotate       = "rotate"
	NameTranslateX   = "translate_x"
	NameTranslateY   = "translate_y"
	NameShearX       = "shear_x"
	NameShearY       = "shear_y"
	NameAutoContrast = "auto_contrast"
	NameContrast     = "contrast"
	NameBrightness   = "brightness"
	NameEqualize     = "equalize"
	NameSolarize     = "solarize"
	NamePosterize    = "posterize"
	NameSharpness    = "sharpness"
	NameColor        = "color"
)

// Transform is a parameterized image operation ready to be applied.
type Transform interface {
	// Name identifies the operation kind.
	Name() string
	// Magnitude is the value the transform was constructed with.
	Magnitude() float64
	// Apply returns a new image; img is never modified.
	Apply(img image.Image, rng *rand.Rand) *image.NRGBA
}

// Constructor builds a Transform from a magnitude.
type Constructor func(magnitude float64) Transform

// fill is the color uncovered areas take after geometric operations.
var fill = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

type operation struct {
	name      string
	magnitude float64
	apply     func(img image.Image, rng *rand.Rand) *image.NRGBA
}

func (o *operation) Name() string       { return o.name }
func (o *operation) Magnitude() float64 { return o.magnitude }

func (o *operation) Apply(img image.Image, rng *rand.Rand) *image.NRGBA {
	return o.apply(img, rng)
}

func (o *operation) String() string {
	return fmt.Sprintf("%s(%.4g)", o.name, o.magnitude)
}

// symmetric draws uniformly from [-m, m].
func symmetric(rng *rand.Rand, m float64) float64 {
	return (2*rng.Float64() - 1) * m
}

// jitterFactor draws uniformly from [max(0, 1-m), 1+m].
func jitterFactor(rng *rand.Rand, m float64) float64 {
	lo := math.Max(0, 1-m)
	hi := 1 + m
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampUint8(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
