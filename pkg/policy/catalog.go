package policy

import (
	"math"

	"github.com/menta2k/randaugment/pkg/transform"
)

// Descriptor is one catalog entry: an operation and the magnitude range the
// global magnitude is rescaled into.
type Descriptor struct {
	Name string
	New  transform.Constructor
	Min  float64
	Max  float64
}

// Contains reports whether v lies between Min and Max. The bounds may be
// given in either order.
func (d Descriptor) Contains(v float64) bool {
	lo, hi := math.Min(d.Min, d.Max), math.Max(d.Min, d.Max)
	return v >= lo && v <= hi
}

// catalog is the fixed, ordered operation table. Index positions are stable.
var catalog = []Descriptor{
	{transform.NameIdentity, transform.Identity, 0, 0},
	{transform.NameRotate, transform.Rotate, 0, 180},
	{transform.NameTranslateX, transform.TranslateX, 0, 0.7},
	{transform.NameTranslateY, transform.TranslateY, 0, 0.7},
	{transform.NameShearX, transform.ShearX, 0, 60},
	{transform.NameShearY, transform.ShearY, 0, 60},
	{transform.NameAutoContrast, transform.AutoContrast, 0, 0},
	{transform.NameContrast, transform.Contrast, 0, 0.9},
	{transform.NameBrightness, transform.Brightness, 0, 0.9},
	{transform.NameEqualize, transform.Equalize, 0, 0},
	// Stronger magnitudes lower the threshold, so Min > Max here.
	{transform.NameSolarize, transform.Solarize, 255, 155},
	{transform.NamePosterize, transform.Posterize, 0, 8},
	{transform.NameSharpness, transform.Sharpness, 0, 5},
	{transform.NameColor, transform.Color, 0, 1},
}

// Catalog returns a copy of the operation table in index order.
func Catalog() []Descriptor {
	return append([]Descriptor(nil), catalog...)
}

// Names returns the operation names in index order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, d := range catalog {
		names[i] = d.Name
	}
	return names
}
