package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "dir/c.png", "d.webp", "e.tiff"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "noext", "x.psd"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "pre_cat_aug_003.png"),
		GenerateOutputFilename("in/cat.jpg", "out", "pre_", "_aug", "png", 3))
	assert.Equal(t, filepath.Join("out", "cat_000.jpg"),
		GenerateOutputFilename("cat.jpg", "out", "", "", "", 0))
	assert.Equal(t, filepath.Join("out", "image_001.webp"),
		GenerateOutputFilename("..", "out", "", "", "webp", 1))
	assert.Equal(t, filepath.Join("out", "cat_002.jpg"),
		GenerateOutputFilename("https://example.com/photos/cat.png", "out", "", "", "jpg", 2))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.png", "a.jpg", "sub/c.webp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "sub", "c.webp"),
	}, files)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	require.NoError(t, EnsureDir(dir))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "name", SanitizeFilename(" .name. "))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KiB", FormatFileSize(1536))
	assert.Equal(t, "0 B", FormatFileSize(-3))
}
