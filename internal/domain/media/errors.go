package media

import (
	"errors"
	"fmt"
)

// Static errors for the ingestion pipeline.
var (
	// ErrInvalidInput is returned for requests rejected before the pipeline
	// starts (empty file, missing filename). Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIO marks local filesystem failures (staging, output directories,
	// chunk reads). Not retried by the store retry policy.
	ErrIO = errors.New("io failure")
	// ErrNotFound is returned when a requested object does not exist in the
	// store.
	ErrNotFound = errors.New("object not found")
)

// TranscodeError reports a transcoder subprocess that exited non-zero.
// Transient transcoder crashes are indistinguishable from permanently bad
// input, so this is fatal for the attempt and never retried.
type TranscodeError struct {
	ExitCode int
	Err      error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed with exit code %d: %v", e.ExitCode, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
