package budget

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Ledger is the mutable record of cumulative spend. It is mutated only by
// the Governor, which serializes access; the exported fields exist for
// snapshot persistence.
type Ledger struct {
	MonthlyLimit   float64            `yaml:"monthly_limit" json:"monthly_limit"`
	MonthlySpent   float64            `yaml:"monthly_spent" json:"monthly_spent"`
	DailySpent     float64            `yaml:"daily_spent" json:"daily_spent"`
	SpendByBackend map[string]float64 `yaml:"spend_by_backend" json:"spend_by_backend"`
	LastReset      time.Time          `yaml:"last_reset_date" json:"last_reset_date"`
}

// newLedger creates an empty ledger with the given monthly limit.
func newLedger(monthlyLimit float64, now time.Time) Ledger {
	return Ledger{
		MonthlyLimit:   monthlyLimit,
		SpendByBackend: make(map[string]float64),
		LastReset:      now,
	}
}

// rollover resets monthly and/or daily accumulators when now has crossed a
// calendar month or day boundary since the last reset. Called before each
// usage increment.
func (l *Ledger) rollover(now time.Time) {
	ly, lm, ld := l.LastReset.Date()
	ny, nm, nd := now.Date()

	if ny != ly || nm != lm {
		l.MonthlySpent = 0
		l.DailySpent = 0
		l.SpendByBackend = make(map[string]float64)
		l.LastReset = now
		return
	}
	if nd != ld {
		l.DailySpent = 0
		l.LastReset = now
	}
}

// SaveLedger writes a yaml snapshot of the ledger to path.
func SaveLedger(l Ledger, path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "budget: marshal ledger")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "budget: write ledger snapshot")
	}
	return nil
}

// LoadLedger reads a yaml ledger snapshot from path. A missing file is not
// an error; it returns an empty ledger with the given limit.
func LoadLedger(path string, monthlyLimit float64, now time.Time) (Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newLedger(monthlyLimit, now), nil
		}
		return Ledger{}, eris.Wrap(err, "budget: read ledger snapshot")
	}

	var l Ledger
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Ledger{}, eris.Wrap(err, "budget: unmarshal ledger")
	}
	if l.SpendByBackend == nil {
		l.SpendByBackend = make(map[string]float64)
	}
	if monthlyLimit > 0 {
		l.MonthlyLimit = monthlyLimit
	}
	return l, nil
}
