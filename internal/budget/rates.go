// Package budget tracks search spend and allocates queries under a cost limit.
package budget

import "github.com/sells-group/outreach-cli/internal/model"

// Rates holds per-backend unit pricing.
type Rates struct {
	ExaPerQuery    float64 `yaml:"exa_per_query" mapstructure:"exa_per_query"`
	SerperPerQuery float64 `yaml:"serper_per_query" mapstructure:"serper_per_query"`
}

// DefaultRates returns the default per-query pricing, equal for both backends.
func DefaultRates() Rates {
	return Rates{
		ExaPerQuery:    0.005,
		SerperPerQuery: 0.005,
	}
}

// PerQuery returns the unit cost for one query against the given backend.
func (r Rates) PerQuery(b model.Backend) float64 {
	switch b {
	case model.BackendExa:
		return r.ExaPerQuery
	case model.BackendSerper:
		return r.SerperPerQuery
	default:
		return 0
	}
}
