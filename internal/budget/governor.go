package budget

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/querygen"
)

// Severity grades budget consumption. Exceeding the limit is deliberately
// non-blocking: the governor reports severity and the caller decides whether
// to proceed. This is a documented policy choice, not an accident.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const (
	warningRatio  = 0.80
	criticalRatio = 0.95
)

// Preset bundles the per-campaign-size allocation parameters.
type Preset struct {
	BudgetLimit           float64
	MaxQueriesPerCategory int
	PriorityCategories    []querygen.Category
}

// presets increase monotonically in every field from small to large.
var presets = map[model.CampaignSize]Preset{
	model.CampaignSmall: {
		BudgetLimit:           2.0,
		MaxQueriesPerCategory: 3,
		PriorityCategories: []querygen.Category{
			querygen.CategoryPrimary, querygen.CategoryOperators,
		},
	},
	model.CampaignMedium: {
		BudgetLimit:           5.0,
		MaxQueriesPerCategory: 5,
		PriorityCategories: []querygen.Category{
			querygen.CategoryPrimary, querygen.CategoryOperators,
			querygen.CategoryIndustry, querygen.CategorySemantic,
		},
	},
	model.CampaignLarge: {
		BudgetLimit:           10.0,
		MaxQueriesPerCategory: 8,
		PriorityCategories: []querygen.Category{
			querygen.CategoryPrimary, querygen.CategoryOperators,
			querygen.CategoryIndustry, querygen.CategorySemantic,
			querygen.CategoryAuthority, querygen.CategoryFresh,
		},
	},
}

// PresetFor returns the allocation preset for a campaign size.
func PresetFor(size model.CampaignSize) (Preset, error) {
	p, ok := presets[size]
	if !ok {
		return Preset{}, eris.Errorf("budget: unknown campaign size %q", size)
	}
	return p, nil
}

// RouteBackend returns the backend with documented strength for a category:
// semantic-leaning categories go to Exa, operator- and recency-leaning ones
// to Serper.
func RouteBackend(cat querygen.Category) model.Backend {
	switch cat {
	case querygen.CategorySemantic, querygen.CategoryIndustry, querygen.CategoryPrimary, querygen.CategorySeasonal:
		return model.BackendExa
	case querygen.CategoryOperators, querygen.CategoryAuthority, querygen.CategoryFresh, querygen.CategoryTrending:
		return model.BackendSerper
	default:
		return model.BackendSerper
	}
}

// Query is an allocated query bound to its category.
type Query struct {
	Text     string
	Category querygen.Category
}

// Allocation is the outcome of a budget allocation pass.
type Allocation struct {
	Queries       map[model.Backend][]Query
	EstimatedCost float64
}

// TotalQueries returns the allocated query count across backends.
func (a *Allocation) TotalQueries() int {
	n := 0
	for _, qs := range a.Queries {
		n += len(qs)
	}
	return n
}

// Status reports budget standing at a point in time.
type Status struct {
	MonthlyLimit float64
	MonthlySpent float64
	DailySpent   float64
	WithinBudget bool
	Severity     Severity
}

// Governor tracks spend against the ledger, learns category effectiveness,
// and allocates queries to backends under a per-campaign budget.
type Governor struct {
	mu      sync.Mutex
	rates   Rates
	ledger  Ledger
	eff     *effectivenessTracker
	nowFunc func() time.Time
}

// NewGovernor creates a Governor with an empty ledger. monthlyLimit must be
// positive; this is one of the few hard configuration errors.
func NewGovernor(rates Rates, monthlyLimit float64) (*Governor, error) {
	if monthlyLimit <= 0 {
		return nil, eris.Errorf("budget: monthly limit must be positive, got %.2f", monthlyLimit)
	}
	g := &Governor{
		rates:   rates,
		eff:     newEffectivenessTracker(),
		nowFunc: time.Now,
	}
	g.ledger = newLedger(monthlyLimit, g.nowFunc())
	return g, nil
}

// WithNow sets a fixed clock for testing.
func (g *Governor) WithNow(fn func() time.Time) *Governor {
	g.nowFunc = fn
	return g
}

// RestoreLedger replaces the governor's ledger, typically from a snapshot.
func (g *Governor) RestoreLedger(l Ledger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l.SpendByBackend == nil {
		l.SpendByBackend = make(map[string]float64)
	}
	g.ledger = l
}

// Snapshot returns a copy of the current ledger for persistence.
func (g *Governor) Snapshot() Ledger {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.ledger
	out.SpendByBackend = make(map[string]float64, len(g.ledger.SpendByBackend))
	for k, v := range g.ledger.SpendByBackend {
		out.SpendByBackend[k] = v
	}
	return out
}

// Allocate selects queries per backend for a campaign. cached, when non-nil,
// marks query/backend pairs already served by the result cache; those are
// allocated at zero cost.
//
// Priority categories are taken first, up to the preset per-category cap.
// Non-priority queries are then added greedily, best-performing category
// first, stopping the moment the next addition would exceed the limit.
func (g *Governor) Allocate(set querygen.CategorySet, size model.CampaignSize, userLimit float64, cached func(model.Backend, string) bool) (*Allocation, error) {
	preset, err := PresetFor(size)
	if err != nil {
		return nil, err
	}

	limit := preset.BudgetLimit
	if userLimit > 0 && userLimit < limit {
		limit = userLimit
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ordered := g.categoriesByEffectiveness(set)

	alloc := &Allocation{Queries: make(map[model.Backend][]Query)}
	priority := make(map[querygen.Category]bool, len(preset.PriorityCategories))
	for _, cat := range preset.PriorityCategories {
		priority[cat] = true
	}

	queryCost := func(backend model.Backend, q string) float64 {
		if cached != nil && cached(backend, q) {
			return 0
		}
		return g.rates.PerQuery(backend)
	}

	// Priority categories first, effectiveness-ordered.
	for _, cat := range ordered {
		if !priority[cat] {
			continue
		}
		backend := RouteBackend(cat)
		for i, q := range set[cat] {
			if i >= preset.MaxQueriesPerCategory {
				break
			}
			alloc.Queries[backend] = append(alloc.Queries[backend], Query{Text: q, Category: cat})
			alloc.EstimatedCost += queryCost(backend, q)
		}
	}

	// Greedy fill from non-priority categories while budget remains.
	for _, cat := range ordered {
		if priority[cat] {
			continue
		}
		backend := RouteBackend(cat)
		for i, q := range set[cat] {
			if i >= preset.MaxQueriesPerCategory {
				break
			}
			cost := queryCost(backend, q)
			if alloc.EstimatedCost+cost > limit {
				zap.L().Debug("budget: allocation limit reached",
					zap.String("category", string(cat)),
					zap.Float64("estimated", alloc.EstimatedCost),
					zap.Float64("limit", limit),
				)
				return alloc, nil
			}
			alloc.Queries[backend] = append(alloc.Queries[backend], Query{Text: q, Category: cat})
			alloc.EstimatedCost += cost
		}
	}

	return alloc, nil
}

// RankCategories orders the set's categories by learned effectiveness,
// best first.
func (g *Governor) RankCategories(set querygen.CategorySet) []querygen.Category {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.categoriesByEffectiveness(set)
}

// categoriesByEffectiveness orders the set's categories by learned estimate,
// descending, with the fixed category order breaking ties deterministically.
// Callers must hold g.mu.
func (g *Governor) categoriesByEffectiveness(set querygen.CategorySet) []querygen.Category {
	fixedRank := make(map[querygen.Category]int)
	for i, cat := range querygen.AllCategories() {
		fixedRank[cat] = i
	}

	var cats []querygen.Category
	for cat := range set {
		cats = append(cats, cat)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		ei, ej := g.eff.Estimate(cats[i]), g.eff.Estimate(cats[j])
		if ei != ej {
			return ei > ej
		}
		return fixedRank[cats[i]] < fixedRank[cats[j]]
	})
	return cats
}

// RecordUsage applies spend to the ledger, rolling the monthly and daily
// accumulators over at period boundaries.
func (g *Governor) RecordUsage(backend model.Backend, queryCount int, cost float64) {
	if cost < 0 {
		cost = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.ledger.rollover(g.nowFunc())
	g.ledger.MonthlySpent += cost
	g.ledger.DailySpent += cost
	g.ledger.SpendByBackend[string(backend)] += cost

	if g.ledger.MonthlySpent > g.ledger.MonthlyLimit {
		zap.L().Warn("budget: monthly limit exceeded",
			zap.Float64("spent", g.ledger.MonthlySpent),
			zap.Float64("limit", g.ledger.MonthlyLimit),
			zap.String("backend", string(backend)),
			zap.Int("queries", queryCount),
		)
	}
}

// RecordOutcome feeds an observed category outcome into the effectiveness
// tracker.
func (g *Governor) RecordOutcome(cat querygen.Category, queriesExecuted, opportunitiesFound int, cost float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eff.Record(cat, queriesExecuted, opportunitiesFound, cost)
}

// Effectiveness returns the current estimate for a category.
func (g *Governor) Effectiveness(cat querygen.Category) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eff.Estimate(cat)
}

// Status reports current budget standing and severity.
func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	ratio := 0.0
	if g.ledger.MonthlyLimit > 0 {
		ratio = g.ledger.MonthlySpent / g.ledger.MonthlyLimit
	}

	sev := SeverityNormal
	switch {
	case ratio >= criticalRatio:
		sev = SeverityCritical
	case ratio >= warningRatio:
		sev = SeverityWarning
	}

	return Status{
		MonthlyLimit: g.ledger.MonthlyLimit,
		MonthlySpent: g.ledger.MonthlySpent,
		DailySpent:   g.ledger.DailySpent,
		WithinBudget: g.ledger.MonthlySpent <= g.ledger.MonthlyLimit,
		Severity:     sev,
	}
}
