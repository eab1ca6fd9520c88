package transform

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// sharpnessKernel is the smoothing filter a sharpness factor of 0 yields.
var sharpnessKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// AutoContrast stretches every color channel so its darkest value maps to 0
// and its brightest to 255. The magnitude is ignored.
func AutoContrast(m float64) Transform {
	return &operation{
		name:      NameAutoContrast,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			src := imaging.Clone(img)
			lo, hi := channelRange(src)
			var luts [3][256]uint8
			for c := 0; c < 3; c++ {
				for i := 0; i < 256; i++ {
					if hi[c] <= lo[c] {
						luts[c][i] = uint8(i)
						continue
					}
					scale := 255 / float64(hi[c]-lo[c])
					luts[c][i] = clampUint8((float64(i) - float64(lo[c])) * scale)
				}
			}
			return applyLUTs(src, luts)
		},
	}
}

// Contrast scales the contrast by a random factor in [max(0,1-m), 1+m],
// pivoting on the mean luminance of the image.
func Contrast(m float64) Transform {
	return &operation{
		name:      NameContrast,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			return adjustContrast(imaging.Clone(img), jitterFactor(rng, m))
		},
	}
}

// Brightness multiplies every channel by a random factor in [max(0,1-m), 1+m].
func Brightness(m float64) Transform {
	return &operation{
		name:      NameBrightness,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			f := jitterFactor(rng, m)
			return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
				return color.NRGBA{
					R: clampUint8(float64(c.R) * f),
					G: clampUint8(float64(c.G) * f),
					B: clampUint8(float64(c.B) * f),
					A: c.A,
				}
			})
		},
	}
}

// Color scales the saturation by a random factor in [max(0,1-m), 1+m]:
// factor 0 is the grayscale image, factor 1 the original.
func Color(m float64) Transform {
	return &operation{
		name:      NameColor,
		magnitude: m,
		apply: func(img image.Image, rng *rand.Rand) *image.NRGBA {
			return adjustSaturation(img, jitterFactor(rng, m))
		},
	}
}

// Equalize equalizes the histogram of every color channel. The magnitude is
// ignored.
func Equalize(m float64) Transform {
	return &operation{
		name:      NameEqualize,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			src := imaging.Clone(img)
			hist := channelHistograms(src)
			var luts [3][256]uint8
			for c := 0; c < 3; c++ {
				luts[c] = equalizeLUT(hist[c])
			}
			return applyLUTs(src, luts)
		},
	}
}

// Solarize inverts every channel value at or above the threshold m.
func Solarize(m float64) Transform {
	return &operation{
		name:      NameSolarize,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			var lut [256]uint8
			for i := range lut {
				if float64(i) >= m {
					lut[i] = 255 - uint8(i)
				} else {
					lut[i] = uint8(i)
				}
			}
			return applyLUTs(imaging.Clone(img), [3][256]uint8{lut, lut, lut})
		},
	}
}

// Posterize keeps the round(m) most significant bits of every channel.
// m is clamped to [0, 8].
func Posterize(m float64) Transform {
	return &operation{
		name:      NamePosterize,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			bits := int(clamp(math.Round(m), 0, 8))
			mask := uint8((0xFF << uint(8-bits)) & 0xFF)
			var lut [256]uint8
			for i := range lut {
				lut[i] = uint8(i) & mask
			}
			return applyLUTs(imaging.Clone(img), [3][256]uint8{lut, lut, lut})
		},
	}
}

// Sharpness blends between a smoothed copy (factor 0) and the original
// (factor 1) using m as the factor; values above 1 sharpen. The one-pixel
// border is left unchanged.
func Sharpness(m float64) Transform {
	return &operation{
		name:      NameSharpness,
		magnitude: m,
		apply: func(img image.Image, _ *rand.Rand) *image.NRGBA {
			src := imaging.Clone(img)
			blurred := imaging.Convolve3x3(src, sharpnessKernel, &imaging.ConvolveOptions{Normalize: true})
			dst := image.NewNRGBA(src.Bounds())
			for i := 0; i < len(src.Pix); i += 4 {
				for c := 0; c < 3; c++ {
					o, s := float64(src.Pix[i+c]), float64(blurred.Pix[i+c])
					dst.Pix[i+c] = clampUint8(s + m*(o-s))
				}
				dst.Pix[i+3] = src.Pix[i+3]
			}
			copyBorder(dst, src)
			return dst
		},
	}
}

// adjustContrast blends every channel toward the mean luminance:
// out = mean + f*(c-mean).
func adjustContrast(img *image.NRGBA, f float64) *image.NRGBA {
	var sum float64
	for i := 0; i < len(img.Pix); i += 4 {
		sum += luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
	var mean float64
	if n := len(img.Pix) / 4; n > 0 {
		mean = sum / float64(n)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampUint8(mean + f*(float64(c.R)-mean)),
			G: clampUint8(mean + f*(float64(c.G)-mean)),
			B: clampUint8(mean + f*(float64(c.B)-mean)),
			A: c.A,
		}
	})
}

// adjustSaturation blends every pixel toward its own luminance.
func adjustSaturation(img image.Image, f float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		gray := luminance(c.R, c.G, c.B)
		return color.NRGBA{
			R: clampUint8(gray + f*(float64(c.R)-gray)),
			G: clampUint8(gray + f*(float64(c.G)-gray)),
			B: clampUint8(gray + f*(float64(c.B)-gray)),
			A: c.A,
		}
	})
}

// luminance is the ITU-R 601 luma of an RGB triple.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// copyBorder copies the one-pixel frame of src into dst. Both images share
// the same bounds.
func copyBorder(dst, src *image.NRGBA) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if y == b.Min.Y || y == b.Max.Y-1 || x == b.Min.X || x == b.Max.X-1 {
				dst.SetNRGBA(x, y, src.NRGBAAt(x, y))
			}
		}
	}
}

// channelRange returns the per-channel minimum and maximum values.
func channelRange(img *image.NRGBA) (lo, hi [3]uint8) {
	lo = [3]uint8{255, 255, 255}
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := img.Pix[i+c]
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}
	return lo, hi
}

func channelHistograms(img *image.NRGBA) (hist [3][256]int) {
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			hist[c][img.Pix[i+c]]++
		}
	}
	return hist
}

// equalizeLUT spreads the cumulative histogram evenly over [0, 255],
// leaving the channel untouched when it holds a single value.
func equalizeLUT(hist [256]int) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i)
	}
	total, last := 0, 0
	for _, n := range hist {
		if n > 0 {
			total += n
			last = n
		}
	}
	step := (total - last) / 255
	if step == 0 {
		return lut
	}
	n := step / 2
	for i := range lut {
		lut[i] = uint8(min(n/step, 255))
		n += hist[i]
	}
	return lut
}

func applyLUTs(img *image.NRGBA, luts [3][256]uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: luts[0][c.R], G: luts[1][c.G], B: luts[2][c.B], A: c.A}
	})
}
