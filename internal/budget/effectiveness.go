package budget

import (
	"github.com/sells-group/outreach-cli/internal/querygen"
)

const (
	// sampleWindow bounds the rolling outcome history.
	sampleWindow = 100
	// minTotalSamples gates any estimate updates.
	minTotalSamples = 10
	// minCategorySamples is the per-category sample floor within recentWindow.
	minCategorySamples = 3
	// recentWindow is how far back the blend looks for fresh samples.
	recentWindow = 20

	// priorWeight / recentWeight define the exponential blend of the prior
	// estimate with freshly observed success rates.
	priorWeight  = 0.7
	recentWeight = 0.3
)

// defaultEffectiveness seeds category estimates before any outcomes exist.
// Values reflect historical conversion of each query style, and are tuning
// priors rather than measurements.
var defaultEffectiveness = map[querygen.Category]float64{
	querygen.CategoryPrimary:   0.80,
	querygen.CategoryOperators: 0.70,
	querygen.CategoryIndustry:  0.60,
	querygen.CategorySemantic:  0.55,
	querygen.CategoryAuthority: 0.45,
	querygen.CategoryFresh:     0.40,
	querygen.CategoryTrending:  0.50,
	querygen.CategorySeasonal:  0.35,
}

// outcomeSample records one observed category outcome.
type outcomeSample struct {
	Category           querygen.Category
	SuccessRate        float64
	CostPerOpportunity float64
}

// effectivenessTracker maintains learned per-category success estimates from
// a bounded rolling window of outcome samples.
type effectivenessTracker struct {
	estimates map[querygen.Category]float64
	samples   []outcomeSample
}

func newEffectivenessTracker() *effectivenessTracker {
	est := make(map[querygen.Category]float64, len(defaultEffectiveness))
	for cat, v := range defaultEffectiveness {
		est[cat] = v
	}
	return &effectivenessTracker{estimates: est}
}

// Estimate returns the current success-rate estimate for a category.
func (t *effectivenessTracker) Estimate(cat querygen.Category) float64 {
	if v, ok := t.estimates[cat]; ok {
		return v
	}
	return 0.5
}

// Record appends an outcome sample and, once enough evidence exists,
// re-blends the category estimate: 70% prior, 30% recent observed rate.
func (t *effectivenessTracker) Record(cat querygen.Category, queriesExecuted, opportunitiesFound int, cost float64) {
	if queriesExecuted <= 0 {
		return
	}

	sample := outcomeSample{
		Category:    cat,
		SuccessRate: float64(opportunitiesFound) / float64(queriesExecuted),
	}
	if opportunitiesFound > 0 {
		sample.CostPerOpportunity = cost / float64(opportunitiesFound)
	}

	t.samples = append(t.samples, sample)
	if len(t.samples) > sampleWindow {
		t.samples = t.samples[len(t.samples)-sampleWindow:]
	}

	if len(t.samples) < minTotalSamples {
		return
	}

	recent := t.samples
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var sum float64
	var n int
	for _, s := range recent {
		if s.Category == cat {
			sum += s.SuccessRate
			n++
		}
	}
	if n < minCategorySamples {
		return
	}

	prior := t.Estimate(cat)
	t.estimates[cat] = priorWeight*prior + recentWeight*(sum/float64(n))
}
