package media

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artsyhq/mediastream/internal/infrastructure/metrics"
)

// VideoTranscoder converts a staged input file into a directory of HLS
// chunks. On failure the returned directory path, when non-empty, was already
// created and must still be cleaned up by the caller.
type VideoTranscoder interface {
	Transcode(ctx context.Context, inputPath string) (string, error)
}

// PhotoTranscoder produces a directory holding the archived original plus a
// resized derivative. Same ownership rules as VideoTranscoder.
type PhotoTranscoder interface {
	Process(ctx context.Context, inputPath string) (string, error)
}

// FFmpegTranscoder implements VideoTranscoder using the ffmpeg CLI.
type FFmpegTranscoder struct {
	ffmpegPath     string
	workDir        string
	segmentSeconds int
	log            zerolog.Logger
}

// NewFFmpegTranscoder creates an FFmpegTranscoder. An empty ffmpegPath
// defaults to "ffmpeg" (found via PATH); an empty workDir defaults to the OS
// temp directory.
func NewFFmpegTranscoder(ffmpegPath, workDir string, segmentSeconds int, log zerolog.Logger) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	if segmentSeconds <= 0 {
		segmentSeconds = 10
	}
	return &FFmpegTranscoder{
		ffmpegPath:     ffmpegPath,
		workDir:        workDir,
		segmentSeconds: segmentSeconds,
		log:            log.With().Str("component", "ffmpeg-transcoder").Logger(),
	}
}

// Transcode converts the input file into an HLS playlist plus segments in a
// fresh uniquely named output directory. The streams are copied, not
// re-encoded; the playlist length is unbounded.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath string) (string, error) {
	outDir, err := t.makeOutputDir("hls_output")
	if err != nil {
		return "", err
	}

	playlist := filepath.Join(outDir, "playlist.m3u8")
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-i", inputPath,
		"-codec", "copy",
		"-start_number", "0",
		"-hls_time", strconv.Itoa(t.segmentSeconds),
		"-hls_list_size", "0",
		"-f", "hls",
		playlist,
	)

	start := time.Now()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return outDir, fmt.Errorf("%w: attach stdout pipe: %v", ErrIO, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return outDir, fmt.Errorf("%w: start ffmpeg: %v", ErrIO, err)
	}

	// Observability side-channel only; the exit code decides success.
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		t.log.Debug().Str("ffmpeg", scanner.Text()).Msg("transcoder output")
	}

	err = cmd.Wait()
	metrics.RecordTranscode("video", time.Since(start).Seconds())
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return outDir, &TranscodeError{ExitCode: exitCode, Err: err}
	}

	t.log.Info().Str("input", inputPath).Str("output_dir", outDir).Msg("transcoded to HLS")
	return outDir, nil
}

func (t *FFmpegTranscoder) makeOutputDir(prefix string) (string, error) {
	dir := filepath.Join(t.workDir, prefix, uuid.NewString())
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("%w: output directory already exists: %s", ErrIO, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output directory: %v", ErrIO, err)
	}
	return dir, nil
}
