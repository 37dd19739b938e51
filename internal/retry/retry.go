// Package retry provides bounded exponential-backoff retry for object store
// operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable is the terminal error raised once an operation has exhausted
// its retry budget. The last underlying failure stays wrapped inside it.
var ErrUnavailable = errors.New("service persistently unavailable")

// Config defines retry behaviour for a guarded operation.
type Config struct {
	// MaxAttempts bounds the total number of invocations, not just retries.
	MaxAttempts int
	// BaseDelay is the wait after the first failed attempt; it doubles after
	// every further failure.
	BaseDelay time.Duration
	// IsTransient decides whether an error is worth retrying. When nil,
	// DefaultIsTransient is used.
	IsTransient func(error) bool
}

// DefaultConfig returns the retry behaviour used for object store calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		IsTransient: DefaultIsTransient,
	}
}

// Do executes fn under cfg. Transient failures are retried with exponential
// backoff; any other failure propagates immediately without consuming the
// retry budget. After MaxAttempts transient failures the last error is
// wrapped in ErrUnavailable.
func Do[T any](ctx context.Context, cfg Config, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	isTransient := cfg.IsTransient
	if isTransient == nil {
		isTransient = DefaultIsTransient
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return result, nil
		}

		if !isTransient(err) {
			log.Debug().
				Err(err).
				Str("operation", operation).
				Int("attempt", attempt).
				Msg("non-transient error, aborting")
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("retry_delay", delay).
			Msg("retrying operation after transient error")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return zero, fmt.Errorf("%w: %s failed after %d attempts: %w", ErrUnavailable, operation, cfg.MaxAttempts, lastErr)
}

// DefaultIsTransient classifies connection and I/O class failures as
// retryable. Semantic failures (bad arguments, 4xx responses) are not.
func DefaultIsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"temporary failure",
		"no such host",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
