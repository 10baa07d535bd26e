package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StaysAvailableBelowThreshold(t *testing.T) {
	t.Parallel()
	b := NewBreaker("exa", BreakerConfig{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second})

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Available())
	assert.Equal(t, 2, b.Failures())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	b := NewBreaker("serper", BreakerConfig{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second}).
		WithNow(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.Available())
}

func TestBreaker_ProbeWindowAfterRecoveryTimeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	b := NewBreaker("exa", BreakerConfig{FailureThreshold: 2, RecoveryTimeout: 30 * time.Second}).
		WithNow(func() time.Time { return now })

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Available())

	now = now.Add(29 * time.Second)
	assert.False(t, b.Available())

	now = now.Add(time.Second)
	assert.True(t, b.Available())

	// A failed probe pushes the window out again.
	b.RecordFailure()
	assert.False(t, b.Available())

	now = now.Add(30 * time.Second)
	assert.True(t, b.Available())
}

func TestBreaker_SuccessResets(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	b := NewBreaker("exa", BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute}).
		WithNow(func() time.Time { return now })

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Available())

	b.RecordSuccess()
	assert.True(t, b.Available())
	assert.Equal(t, 0, b.Failures())
}

func TestNewBreaker_Defaults(t *testing.T) {
	t.Parallel()
	b := NewBreaker("exa", BreakerConfig{})

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.True(t, b.Available(), "default threshold is 5")

	b.RecordFailure()
	assert.False(t, b.Available())
}
