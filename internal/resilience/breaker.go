// Package resilience provides backend availability tracking and retry
// support for external service calls.
package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when a call is rejected because the breaker
// considers the service down.
var ErrUnavailable = eris.New("resilience: service unavailable")

// BreakerConfig controls availability tracking for one service.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// service is marked unavailable. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the service stays marked unavailable
	// before a probe call is allowed through. Default: 30s.
	RecoveryTimeout time.Duration
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Breaker tracks consecutive failures for one backend. The orchestrator
// uses one Breaker per search backend; "both backends unavailable" is the
// pipeline's only fatal search condition.
type Breaker struct {
	mu   sync.Mutex
	cfg  BreakerConfig
	name string

	consecutiveFailures int
	downSince           time.Time
	nowFunc             func() time.Time
}

// NewBreaker creates a Breaker for the named service.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		name:    name,
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (b *Breaker) WithNow(fn func() time.Time) *Breaker {
	b.nowFunc = fn
	return b
}

// Available reports whether calls should be routed to this service. After
// RecoveryTimeout a single probe window opens even while marked down.
func (b *Breaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consecutiveFailures < b.cfg.FailureThreshold {
		return true
	}
	return b.nowFunc().Sub(b.downSince) >= b.cfg.RecoveryTimeout
}

// RecordSuccess marks the service healthy again.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consecutiveFailures >= b.cfg.FailureThreshold {
		zap.L().Info("resilience: service recovered", zap.String("service", b.name))
	}
	b.consecutiveFailures = 0
}

// RecordFailure counts a failure, marking the service down at the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if b.consecutiveFailures == b.cfg.FailureThreshold {
		b.downSince = b.nowFunc()
		zap.L().Warn("resilience: service marked unavailable",
			zap.String("service", b.name),
			zap.Int("consecutive_failures", b.consecutiveFailures),
		)
	}
	if b.consecutiveFailures > b.cfg.FailureThreshold {
		b.downSince = b.nowFunc()
	}
}

// Failures returns the consecutive failure count, for observability.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}
