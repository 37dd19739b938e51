package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artsyhq/mediastream/internal/retry"
)

var errConn = errors.New("connection refused")

func testConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	for k := 0; k < 3; k++ {
		t.Run(fmt.Sprintf("fails %d times then succeeds", k), func(t *testing.T) {
			calls := 0
			result, err := retry.Do(context.Background(), testConfig(), "put-object", func(context.Context) (string, error) {
				calls++
				if calls <= k {
					return "", errConn
				}
				return "ok", nil
			})

			require.NoError(t, err)
			assert.Equal(t, "ok", result)
			assert.Equal(t, k+1, calls)
		})
	}
}

func TestDo_ExhaustsBudgetAndWrapsUnavailable(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), testConfig(), "put-object", func(context.Context) (string, error) {
		calls++
		return "", errConn
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrUnavailable)
	assert.ErrorIs(t, err, errConn)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientPropagatesImmediately(t *testing.T) {
	terminal := errors.New("bucket name contains invalid characters")
	calls := 0
	_, err := retry.Do(context.Background(), testConfig(), "make-bucket", func(context.Context) (int, error) {
		calls++
		return 0, terminal
	})

	require.ErrorIs(t, err, terminal)
	assert.NotErrorIs(t, err, retry.ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := retry.Config{MaxAttempts: 3, BaseDelay: time.Minute}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := retry.Do(ctx, cfg, "get-object", func(context.Context) (string, error) {
			calls++
			return "", errConn
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe context cancellation")
	}
}

func TestDefaultIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"connection refused syscall", syscall.ECONNREFUSED, true},
		{"connection reset", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), true},
		{"timeout message", errors.New("request timeout exceeded"), true},
		{"semantic error", errors.New("bucket does not exist"), false},
		{"bad request", errors.New("400 Bad Request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.DefaultIsTransient(tt.err))
		})
	}
}
