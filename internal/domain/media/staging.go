package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Stager materialises uploaded byte streams into files the transcoder can
// read, and owns their cleanup.
type Stager struct {
	dir string
	log zerolog.Logger
}

// NewStager creates a Stager writing into dir. An empty dir means the OS
// temp directory.
func NewStager(dir string, log zerolog.Logger) *Stager {
	return &Stager{
		dir: dir,
		log: log.With().Str("component", "stager").Logger(),
	}
}

// Stage writes the upload content to a uniquely named temp file and returns
// its path. The caller owns the file and must Release it on every exit path.
func (s *Stager) Stage(req UploadRequest) (string, error) {
	pattern := "upload-*" + filepath.Ext(req.Filename)
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: create staging file: %v", ErrIO, err)
	}

	if _, err := io.Copy(f, req.Content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write staging file: %v", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close staging file: %v", ErrIO, err)
	}

	s.log.Debug().Str("path", f.Name()).Msg("staged upload")
	return f.Name(), nil
}

// Release deletes a staged file. Best effort: a failed delete is logged as a
// warning and never propagated, so it cannot mask the pipeline's outcome.
func (s *Stager) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to delete staged file")
	}
}

// ReleaseDir deletes a transcode output directory recursively, best effort.
func (s *Stager) ReleaseDir(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to delete output directory")
	}
}
