package budget

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Rollover(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	t.Run("same day no reset", func(t *testing.T) {
		t.Parallel()
		l := newLedger(10, base)
		l.MonthlySpent, l.DailySpent = 3, 1
		l.SpendByBackend["exa"] = 3

		l.rollover(base.Add(2 * time.Hour))
		assert.InDelta(t, 3.0, l.MonthlySpent, 1e-9)
		assert.InDelta(t, 1.0, l.DailySpent, 1e-9)
	})

	t.Run("new day resets daily only", func(t *testing.T) {
		t.Parallel()
		l := newLedger(10, base)
		l.MonthlySpent, l.DailySpent = 3, 1
		l.SpendByBackend["exa"] = 3

		next := time.Date(2026, time.March, 16, 0, 30, 0, 0, time.UTC)
		l.rollover(next)
		assert.InDelta(t, 3.0, l.MonthlySpent, 1e-9)
		assert.InDelta(t, 0.0, l.DailySpent, 1e-9)
		assert.InDelta(t, 3.0, l.SpendByBackend["exa"], 1e-9)
		assert.Equal(t, next, l.LastReset)
	})

	t.Run("new month resets everything", func(t *testing.T) {
		t.Parallel()
		l := newLedger(10, base)
		l.MonthlySpent, l.DailySpent = 3, 1
		l.SpendByBackend["exa"] = 2
		l.SpendByBackend["serper"] = 1

		next := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		l.rollover(next)
		assert.InDelta(t, 0.0, l.MonthlySpent, 1e-9)
		assert.InDelta(t, 0.0, l.DailySpent, 1e-9)
		assert.Empty(t, l.SpendByBackend)
		assert.Equal(t, next, l.LastReset)
	})
}

func TestSaveLoadLedger_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "budget_ledger.yaml")
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	l := newLedger(25, now)
	l.MonthlySpent = 4.5
	l.DailySpent = 1.25
	l.SpendByBackend["exa"] = 3.0
	l.SpendByBackend["serper"] = 1.5

	require.NoError(t, SaveLedger(l, path))

	loaded, err := LoadLedger(path, 25, now)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, loaded.MonthlySpent, 1e-9)
	assert.InDelta(t, 1.25, loaded.DailySpent, 1e-9)
	assert.InDelta(t, 3.0, loaded.SpendByBackend["exa"], 1e-9)
	assert.True(t, loaded.LastReset.Equal(now))
}

func TestLoadLedger_MissingFile(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	l, err := LoadLedger(filepath.Join(t.TempDir(), "absent.yaml"), 25, now)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, l.MonthlyLimit, 1e-9)
	assert.Zero(t, l.MonthlySpent)
	assert.NotNil(t, l.SpendByBackend)
}

func TestLoadLedger_LimitOverridesSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "budget_ledger.yaml")
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	l := newLedger(25, now)
	require.NoError(t, SaveLedger(l, path))

	loaded, err := LoadLedger(path, 50, now)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, loaded.MonthlyLimit, 1e-9)
}

func TestLoadLedger_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "budget_ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := LoadLedger(path, 25, time.Now())
	assert.Error(t, err)
}
