package randaugment

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/randaugment/pkg/imageio"
	"github.com/menta2k/randaugment/pkg/manifest"
	"github.com/menta2k/randaugment/pkg/policy"
	"github.com/menta2k/randaugment/pkg/types"
)

// createTestImage creates a simple test image with a bright subject in the center
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func writeTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(createTestImage(width, height), path))
	return path
}

func TestNew(t *testing.T) {
	aug, err := New(9, 2)
	require.NoError(t, err)
	require.NotNil(t, aug)
	assert.NotNil(t, aug.io)
	assert.NotNil(t, aug.policy)
	assert.NotNil(t, aug.recorder)
	assert.Equal(t, 9.0, aug.Policy().Magnitude())
	assert.Equal(t, 2, aug.Policy().NumOps())
}

func TestNewRejectsInvalidPolicy(t *testing.T) {
	_, err := New(21, 2)
	assert.True(t, errors.Is(err, policy.ErrInvalidMagnitude))

	_, err = New(5, 0)
	assert.True(t, errors.Is(err, policy.ErrInvalidCount))
}

func TestAugment(t *testing.T) {
	aug, err := NewWithConfig(
		policy.Config{Magnitude: 10, NumOps: 3, MaxMagnitude: 20, Seed: 4},
		imageio.Config{},
		DefaultOutputOptions(),
	)
	require.NoError(t, err)

	img := createTestImage(120, 90)
	out, ops := aug.Augment(img)
	assert.Len(t, ops, 3)
	assert.Equal(t, 120, out.Bounds().Dx())
	assert.Equal(t, 90, out.Bounds().Dy())
	assert.Len(t, aug.Sample(), 3)
}

func TestProcessImageFile(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")
	input := writeTestImage(t, inDir, "cat.png", 64, 48)

	aug, err := NewWithConfig(
		policy.Config{Magnitude: 6, NumOps: 2, MaxMagnitude: 20, Seed: 11},
		imageio.Config{},
		types.OutputOptions{Format: "png", Suffix: "_aug"},
	)
	require.NoError(t, err)

	records, err := aug.ProcessImageFile(input, outDir, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, input, rec.Source)
		assert.Equal(t, filepath.Join(outDir, []string{"cat_aug_000.png", "cat_aug_001.png", "cat_aug_002.png"}[i]), rec.Output)
		assert.Len(t, rec.Ops, 2)
		assert.Equal(t, 64, rec.Width)
		assert.Equal(t, 48, rec.Height)

		loaded, err := aug.LoadImage(rec.Output)
		require.NoError(t, err)
		assert.Equal(t, 64, loaded.Bounds().Dx())
	}

	path, err := aug.WriteManifest(outDir)
	require.NoError(t, err)
	m, err := manifest.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, aug.Manifest().RunID, m.RunID)
	assert.Len(t, m.Variants, 3)
	assert.Equal(t, 6.0, m.Policy.Magnitude)
}

func TestManifestRecordsEffectiveSeed(t *testing.T) {
	aug, err := New(5, 2)
	require.NoError(t, err)
	assert.NotZero(t, aug.Manifest().Policy.Seed)
	assert.Equal(t, aug.Policy().Seed(), aug.Manifest().Policy.Seed)
}

func TestProcessImageFileErrors(t *testing.T) {
	aug, err := New(5, 1)
	require.NoError(t, err)
	outDir := t.TempDir()

	_, err = aug.ProcessImageFile(filepath.Join(outDir, "missing.png"), outDir, 1)
	assert.Error(t, err)

	tiny := writeTestImage(t, t.TempDir(), "tiny.png", 2, 2)
	_, err = aug.ProcessImageFile(tiny, outDir, 1)
	assert.ErrorContains(t, err, "too small")

	ok := writeTestImage(t, t.TempDir(), "ok.png", 32, 32)
	_, err = aug.ProcessImageFile(ok, outDir, 0)
	assert.Error(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveImage(t *testing.T) {
	aug, err := New(5, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, aug.SaveImage(createTestImage(30, 20), path))
	img, err := aug.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

func BenchmarkAugment(b *testing.B) {
	aug, _ := NewWithConfig(
		policy.Config{Magnitude: 9, NumOps: 2, MaxMagnitude: 20, Seed: 1},
		imageio.Config{},
		DefaultOutputOptions(),
	)
	img := createTestImage(224, 224)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		aug.Augment(img)
	}
}
