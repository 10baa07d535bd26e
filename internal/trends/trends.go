// Package trends supplies optional trend signals to the query generator.
package trends

import (
	"context"
	"sort"
	"time"
)

// Signals carries trend context for a keyword set. All fields are optional;
// an empty Signals contributes no extra query categories.
type Signals struct {
	// RisingTopics and RisingQueries are topics/queries with accelerating
	// interest relative to the baseline period.
	RisingTopics  []string
	RisingQueries []string

	// InterestByMonth is a 0-100 historical interest level per month.
	InterestByMonth map[time.Month]float64
}

// PeakMonths returns the months whose interest is at or above the 70th
// percentile of all recorded months, in calendar order.
func (s Signals) PeakMonths() []time.Month {
	if len(s.InterestByMonth) == 0 {
		return nil
	}

	values := make([]float64, 0, len(s.InterestByMonth))
	for _, v := range s.InterestByMonth {
		values = append(values, v)
	}
	sort.Float64s(values)

	// 70th percentile by nearest-rank.
	rank := int(0.7 * float64(len(values)))
	if rank >= len(values) {
		rank = len(values) - 1
	}
	threshold := values[rank]

	var months []time.Month
	for m := time.January; m <= time.December; m++ {
		if v, ok := s.InterestByMonth[m]; ok && v >= threshold {
			months = append(months, m)
		}
	}
	return months
}

// Provider produces trend signals for a set of keywords.
type Provider interface {
	Analyze(ctx context.Context, keywords []string) (*Signals, error)
}
