package transform

import (
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Identity returns the image unchanged. The magnitude is ignored.
func Identity(m float64) Transform {
	return &operation{
		name:      NameIdentity,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			return imaging.Clone(img)
		},
	}
}

// Rotate rotates by a random angle in [-m, m] degrees around the center,
// keeping the original canvas size.
func Rotate(m float64) Transform {
	return &operation{
		name:      NameRotate,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			angle := symmetric(rng, m)
			if angle == 0 {
				return imaging.Clone(img)
			}
			b := img.Bounds()
			rotated := imaging.Rotate(img, angle, fill)
			return imaging.PasteCenter(imaging.New(b.Dx(), b.Dy(), fill), rotated)
		},
	}
}

// TranslateX shifts horizontally by a random fraction of the width in [-m, m].
func TranslateX(m float64) Transform {
	return &operation{
		name:      NameTranslateX,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			dx := int(math.Round(symmetric(rng, m) * float64(img.Bounds().Dx())))
			return translate(img, dx, 0)
		},
	}
}

// TranslateY shifts vertically by a random fraction of the height in [-m, m].
func TranslateY(m float64) Transform {
	return &operation{
		name:      NameTranslateY,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			dy := int(math.Round(symmetric(rng, m) * float64(img.Bounds().Dy())))
			return translate(img, 0, dy)
		},
	}
}

// ShearX shears along the x axis by a random angle in [-m, m] degrees.
func ShearX(m float64) Transform {
	return &operation{
		name:      NameShearX,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			return shear(img, symmetric(rng, m), 0)
		},
	}
}

// ShearY shears along the y axis by a random angle in [-m, m] degrees.
func ShearY(m float64) Transform {
	return &operation{
		name:      NameShearY,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			return shear(img, 0, symmetric(rng, m))
		},
	}
}

func translate(img image.Image, dx, dy int) *image.NRGBA {
	src := imaging.Clone(img)
	if dx == 0 && dy == 0 {
		return src
	}
	b := src.Bounds()
	dst := imaging.New(b.Dx(), b.Dy(), fill)
	return imaging.Paste(dst, src, image.Pt(dx, dy))
}

// shear applies x' = x + tan(ax)*(y-cy), y' = y + tan(ay)*(x-cx).
// Only one of ax, ay is expected to be non-zero.
func shear(img image.Image, ax, ay float64) *image.NRGBA {
	src := imaging.Clone(img)
	if ax == 0 && ay == 0 {
		return src
	}
	b := src.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	tx := math.Tan(ax * math.Pi / 180)
	ty := math.Tan(ay * math.Pi / 180)

	s2d := f64.Aff3{
		1, tx, -tx * cy,
		ty, 1, -ty * cx,
	}
	dst := imaging.New(b.Dx(), b.Dy(), fill)
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
