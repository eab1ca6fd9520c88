// Package imageio loads and saves the images an augmentation run reads and
// produces. It understands jpg, png, gif, bmp, tiff and webp on input and
// jpg, png and webp on output.
package imageio

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Config holds configuration for image loading and saving
type Config struct {
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
	HTTPTimeout      time.Duration
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

// Processor handles image loading and saving
type Processor struct {
	config Config
}

// DefaultFormats lists the input formats accepted by default.
var DefaultFormats = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

// New creates a Processor with default configuration
func New() *Processor {
	return &Processor{
		config: Config{
			DefaultQuality:   90,
			SupportedFormats: DefaultFormats,
			MinImageSize:     8,
			HTTPTimeout:      30 * time.Second,
		},
	}
}

// NewWithConfig creates a Processor with custom configuration
func NewWithConfig(config Config) *Processor {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	return &Processor{config: config}
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImage loads an image from a file path
func (p *Processor) LoadImage(path string) (image.Image, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !p.isFormatSupported(ext) {
		return nil, errors.Errorf("unsupported image format: %q", ext)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// Fallback: the cgo webp decoder handles files x/image/webp rejects.
	if ext == "webp" {
		if f, ferr := os.Open(path); ferr == nil {
			defer f.Close()
			if img, werr := webp.Decode(f); werr == nil {
				return img, nil
			}
		}
	}
	return nil, errors.Wrapf(err, "failed to load %s", path)
}

// LoadImageFromReader loads an image from an io.Reader
func (p *Processor) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image data")
	}
	return p.decodeImageFromBytes(data)
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{Timeout: p.config.HTTPTimeout}
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "randaugment/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}
	return p.LoadImageFromReader(resp.Body)
}

func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		if !p.isFormatSupported(format) {
			return nil, errors.Errorf("unsupported image format: %s", format)
		}
		return img, nil
	}
	if p.isFormatSupported("webp") {
		if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return img, nil
		}
	}
	return nil, errors.Wrap(err, "failed to decode image")
}

// SaveImage saves an image to path in the given format (jpg, png or webp).
// A non-positive quality falls back to the configured default.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}
	switch NormalizeFormat(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			return errors.Wrapf(err, "failed to encode %s", path)
		}
		return nil
	case "png":
		return errors.Wrapf(imaging.Save(img, path), "failed to save %s", path)
	case "jpg":
		return errors.Wrapf(imaging.Save(img, path, imaging.JPEGQuality(quality)), "failed to save %s", path)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

// NormalizeFormat maps format aliases onto jpg, png or webp. Unknown formats
// are returned lower-cased and unchanged.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "jpg", "jpeg":
		return "jpg"
	default:
		return f
	}
}

// GetImageInfo returns basic information about an image
func (p *Processor) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks if an image meets minimum requirements
func (p *Processor) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < p.config.MinImageSize || bounds.Dy() < p.config.MinImageSize {
		return errors.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), p.config.MinImageSize)
	}
	return nil
}

func (p *Processor) isFormatSupported(format string) bool {
	for _, supported := range p.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}
