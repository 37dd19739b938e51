package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artsyhq/mediastream/internal/infrastructure/metrics"
)

// ImageProcessor implements PhotoTranscoder. It archives the original and
// produces one resized JPEG derivative bounded to maxWidth x maxHeight.
type ImageProcessor struct {
	workDir   string
	maxWidth  int
	maxHeight int
	quality   float64
	log       zerolog.Logger
}

func NewImageProcessor(workDir string, maxWidth, maxHeight int, quality float64, log zerolog.Logger) *ImageProcessor {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if maxWidth <= 0 {
		maxWidth = 800
	}
	if maxHeight <= 0 {
		maxHeight = 600
	}
	if quality <= 0 || quality > 1 {
		quality = 0.85
	}
	return &ImageProcessor{
		workDir:   workDir,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
		log:       log.With().Str("component", "image-processor").Logger(),
	}
}

// Process copies the original into a fresh output directory and writes the
// resized derivative next to it as image.jpg. Aspect ratio is preserved;
// images already inside the bounding box are not upscaled.
func (p *ImageProcessor) Process(ctx context.Context, inputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	defer func() {
		metrics.RecordTranscode("photo", time.Since(start).Seconds())
	}()

	dir := filepath.Join(p.workDir, "photo_output", uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output directory: %v", ErrIO, err)
	}

	original := filepath.Join(dir, "original_"+filepath.Base(inputPath))
	if err := copyFile(inputPath, original); err != nil {
		return dir, fmt.Errorf("%w: archive original: %v", ErrIO, err)
	}

	img, err := imaging.Open(inputPath)
	if err != nil {
		return dir, fmt.Errorf("%w: decode image: %v", ErrIO, err)
	}

	resized := imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	derivative := filepath.Join(dir, "image.jpg")
	if err := imaging.Save(resized, derivative, imaging.JPEGQuality(int(p.quality*100))); err != nil {
		return dir, fmt.Errorf("%w: encode derivative: %v", ErrIO, err)
	}

	p.log.Info().Str("input", inputPath).Str("output_dir", dir).Msg("processed photo")
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
