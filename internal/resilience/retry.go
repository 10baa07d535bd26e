package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry with exponential backoff and jitter. The core
// search loop never retries (probe/expand substitutes breadth for retries);
// this is used by the export surfaces only.
type RetryConfig struct {
	// MaxAttempts includes the first try. Default: 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 15s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the delay. Default: 0.25.
	JitterFraction float64
}

// DefaultRetryConfig returns the export-path retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     15 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 15 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		c.JitterFraction = 0.25
	}
	return c
}

// Retry executes fn, retrying transient failures with backoff. Context
// cancellation stops retries immediately.
func Retry(ctx context.Context, cfg RetryConfig, op string, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
		if delay > float64(cfg.MaxBackoff) {
			delay = float64(cfg.MaxBackoff)
		}
		if cfg.JitterFraction > 0 {
			delay += delay * cfg.JitterFraction * (rand.Float64()*2 - 1)
		}

		zap.L().Debug("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", time.Duration(delay)),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(time.Duration(delay)):
		}
	}
	return lastErr
}

// IsTransient reports whether an error looks safe to retry: network
// timeouts, connection resets, and rate-limit style failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"status 429",
		"status 502",
		"status 503",
		"status 504",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
