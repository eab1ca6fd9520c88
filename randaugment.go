// Package randaugment provides RandAugment-style data augmentation for
// training images.
//
// A policy draws N operations uniformly at random, with replacement, from a
// fixed catalog of 14 image operations and rescales one global magnitude M
// from [0, MaxMagnitude] into each operation's own range. The drawn
// operations are then applied in order to the image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/menta2k/randaugment"
//	)
//
//	func main() {
//		aug, err := randaugment.New(9, 2)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := aug.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		out, ops := aug.Augment(img)
//		for _, op := range ops {
//			log.Printf("%s magnitude=%.3f", op.Name, op.Magnitude)
//		}
//		if err := aug.SaveImage(out, "photo_aug.jpg"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of three main components:
//
// 1. Policy (pkg/policy): the operation catalog and the sampler
// 2. Transform (pkg/transform): the image operations themselves
// 3. ImageIO (pkg/imageio): image loading and saving
//
// Every variant written by ProcessImageFile is recorded in a run manifest
// (pkg/manifest) listing the operations and magnitudes that produced it.
package randaugment

import (
	"image"
	"io"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/randaugment/internal/utils"
	"github.com/menta2k/randaugment/pkg/imageio"
	"github.com/menta2k/randaugment/pkg/manifest"
	"github.com/menta2k/randaugment/pkg/policy"
	"github.com/menta2k/randaugment/pkg/types"
)

// Version of the randaugment library
const Version = "1.0.0"

// Augmenter provides a high-level interface for augmenting image files
type Augmenter struct {
	io       *imageio.Processor
	policy   *policy.RandAugment
	output   types.OutputOptions
	recorder *manifest.Recorder
}

// DefaultOutputOptions returns the output settings New uses.
func DefaultOutputOptions() types.OutputOptions {
	return types.OutputOptions{Format: "jpg", Quality: 90, Suffix: "_aug"}
}

// New creates an Augmenter drawing n operations at magnitude m on the default
// magnitude scale.
func New(m float64, n int) (*Augmenter, error) {
	return NewWithConfig(
		policy.Config{Magnitude: m, NumOps: n, MaxMagnitude: policy.DefaultMaxMagnitude},
		imageio.Config{},
		DefaultOutputOptions(),
	)
}

// NewWithConfig creates an Augmenter with custom configuration. A zero
// imageio.Config selects the imageio defaults.
func NewWithConfig(policyConfig policy.Config, ioConfig imageio.Config, output types.OutputOptions) (*Augmenter, error) {
	p, err := policy.NewWithConfig(policyConfig)
	if err != nil {
		return nil, err
	}

	processor := imageio.New()
	if len(ioConfig.SupportedFormats) > 0 {
		processor = imageio.NewWithConfig(ioConfig)
	}
	if output.Format == "" {
		output.Format = "jpg"
	}

	return &Augmenter{
		io:       processor,
		policy:   p,
		output:   output,
		recorder: manifest.NewRecorder(p.Config()),
	}, nil
}

// Policy returns the underlying sampling policy
func (a *Augmenter) Policy() *policy.RandAugment {
	return a.policy
}

// LoadImage loads an image from a file path or http(s) URL
func (a *Augmenter) LoadImage(source string) (image.Image, error) {
	return a.io.LoadImageSmart(source)
}

// LoadImageFromReader loads an image from an io.Reader
func (a *Augmenter) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	return a.io.LoadImageFromReader(reader)
}

// SaveImage saves an image using the configured quality; the format follows
// the file extension.
func (a *Augmenter) SaveImage(img image.Image, path string) error {
	return a.io.SaveImage(img, path, utils.GetFileExtension(path), a.output.Quality, a.output.Lossless)
}

// Sample draws a set of operations without applying them
func (a *Augmenter) Sample() []policy.SampledOp {
	return a.policy.Sample()
}

// Augment applies a freshly sampled set of operations to img
func (a *Augmenter) Augment(img image.Image) (*image.NRGBA, []policy.SampledOp) {
	return a.policy.Apply(img)
}

// ProcessImageFile loads inputPath, writes copies augmented variants into
// outputDir and records each one in the run manifest.
func (a *Augmenter) ProcessImageFile(inputPath, outputDir string, copies int) ([]types.VariantRecord, error) {
	if copies < 1 {
		return nil, errors.Errorf("copies must be positive, got %d", copies)
	}

	img, err := a.LoadImage(inputPath)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load image")
	}
	if err := a.io.ValidateImage(img); err != nil {
		return nil, errors.WithMessage(err, "image validation failed")
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	format := imageio.NormalizeFormat(a.output.Format)
	records := make([]types.VariantRecord, 0, copies)
	for i := 0; i < copies; i++ {
		out, ops := a.Augment(img)
		outputPath := utils.GenerateOutputFilename(inputPath, outputDir, a.output.Prefix, a.output.Suffix, format, i)
		if err := a.io.SaveImage(out, outputPath, format, a.output.Quality, a.output.Lossless); err != nil {
			return records, errors.WithMessagef(err, "failed to save variant %d", i)
		}

		rec := types.VariantRecord{
			Source: inputPath,
			Output: outputPath,
			Width:  out.Bounds().Dx(),
			Height: out.Bounds().Dy(),
			Ops:    manifest.Ops(ops),
		}
		a.recorder.Add(rec)
		records = append(records, rec)
		klog.V(1).Infof("wrote %s ops=%v", outputPath, rec.Ops)
	}

	return records, nil
}

// Manifest returns the record of every variant written so far
func (a *Augmenter) Manifest() types.Manifest {
	return a.recorder.Manifest()
}

// WriteManifest writes the run manifest into dir and returns its path
func (a *Augmenter) WriteManifest(dir string) (string, error) {
	return a.recorder.WriteFile(dir)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
