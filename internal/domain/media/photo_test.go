package media

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestProcessResizesWithinBounds(t *testing.T) {
	workDir := t.TempDir()
	input := writeTestPNG(t, t.TempDir(), 1600, 1200)

	proc := NewImageProcessor(workDir, 800, 600, 0.85, zerolog.Nop())
	outDir, err := proc.Process(context.Background(), input)
	require.NoError(t, err)
	defer os.RemoveAll(outDir)

	// The original is archived next to the derivative.
	assert.FileExists(t, filepath.Join(outDir, "original_input.png"))

	derivative := filepath.Join(outDir, "image.jpg")
	require.FileExists(t, derivative)

	f, err := os.Open(derivative)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 800, bounds.Dx())
	assert.Equal(t, 600, bounds.Dy())
}

func TestProcessDoesNotUpscale(t *testing.T) {
	workDir := t.TempDir()
	input := writeTestPNG(t, t.TempDir(), 200, 100)

	proc := NewImageProcessor(workDir, 800, 600, 0.85, zerolog.Nop())
	outDir, err := proc.Process(context.Background(), input)
	require.NoError(t, err)
	defer os.RemoveAll(outDir)

	f, err := os.Open(filepath.Join(outDir, "image.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestProcessRejectsNonImage(t *testing.T) {
	workDir := t.TempDir()
	input := filepath.Join(t.TempDir(), "input.png")
	require.NoError(t, os.WriteFile(input, []byte("not an image"), 0o644))

	proc := NewImageProcessor(workDir, 800, 600, 0.85, zerolog.Nop())
	outDir, err := proc.Process(context.Background(), input)
	assert.ErrorIs(t, err, ErrIO)
	if outDir != "" {
		os.RemoveAll(outDir)
	}
}

func TestNewImageProcessorDefaults(t *testing.T) {
	proc := NewImageProcessor("", 0, -1, 2.0, zerolog.Nop())
	assert.Equal(t, os.TempDir(), proc.workDir)
	assert.Equal(t, 800, proc.maxWidth)
	assert.Equal(t, 600, proc.maxHeight)
	assert.InDelta(t, 0.85, proc.quality, 1e-9)
}
