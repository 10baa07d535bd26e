package resilience

import (
	"context"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), "export", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), "export", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return eris.New("request failed: status 503")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), "export", func(ctx context.Context) error {
		calls++
		return eris.New("request failed: status 401")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), "export", func(ctx context.Context) error {
		calls++
		return eris.New("request failed: status 429")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "429")
}

func TestRetry_ContextCancelStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, fastRetryConfig(), "export", func(ctx context.Context) error {
		calls++
		cancel()
		return eris.New("request failed: status 503")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "operation timed out" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"wrapped refused", eris.Wrap(syscall.ECONNREFUSED, "serper: search"), true},
		{"rate limited", eris.New("notion: update page: status 429"), true},
		{"bad gateway", eris.New("exa: search request: status 502"), true},
		{"unauthorized", eris.New("exa: search request: status 401"), false},
		{"validation", eris.New("model: search result url is empty"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
