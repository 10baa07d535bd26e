// Package search runs the adaptive dual-source probe/expand query strategy.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/cache"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
	"github.com/sells-group/outreach-cli/internal/querygen"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

const (
	// Probe phase shape: a cheap sample of the best categories.
	probeCategoryCount      = 4
	probeQueriesPerCategory = 2

	defaultTarget  = 10
	defaultMaxTime = 2 * time.Minute
)

// Config holds orchestrator tuning.
type Config struct {
	ConcurrencyPerBackend int
	RateLimitPerSec       float64
	ProbeResultCap        int
	ExpandResultCap       int
}

func (c Config) withDefaults() Config {
	if c.ConcurrencyPerBackend <= 0 {
		c.ConcurrencyPerBackend = 3
	}
	if c.RateLimitPerSec <= 0 {
		c.RateLimitPerSec = 5
	}
	if c.ProbeResultCap <= 0 {
		c.ProbeResultCap = 5
	}
	if c.ExpandResultCap <= 0 {
		c.ExpandResultCap = 10
	}
	return c
}

// Request describes one discovery search.
type Request struct {
	Categories          querygen.CategorySet
	TargetOpportunities int
	MaxTime             time.Duration
}

// PhaseStats summarizes one phase of execution.
type PhaseStats struct {
	Queries       int     `json:"queries"`
	CacheHits     int     `json:"cache_hits"`
	Results       int     `json:"results"`
	Opportunities int     `json:"opportunities"`
	CostUSD       float64 `json:"cost_usd"`
}

// Result is the orchestrator's structured outcome. Success is false only
// when both backends were unavailable; every other failure mode degrades to
// partial results.
type Result struct {
	Success            bool                                  `json:"success"`
	ResultsByBackend   map[model.Backend][]model.SearchResult `json:"results_by_backend"`
	TotalOpportunities int                                   `json:"total_opportunities"`
	Probe              PhaseStats                            `json:"probe"`
	Expansion          *PhaseStats                           `json:"expansion,omitempty"`
}

// task is one query bound for one backend.
type task struct {
	query   budget.Query
	backend model.Backend
}

// batch is one phase's merged execution output.
type batch struct {
	results   map[model.Backend][]model.SearchResult
	stats     PhaseStats
	failed    int
	cacheHits map[string]struct{}
}

// Orchestrator issues categorized queries to both backends with bounded
// per-backend concurrency, consulting the cache before spending budget.
type Orchestrator struct {
	backends map[model.Backend]Backend
	breakers map[model.Backend]*resilience.Breaker
	limiters map[model.Backend]*rate.Limiter
	cache    *cache.Cache
	gov      *budget.Governor
	rates    budget.Rates
	cfg      Config
	nowFunc  func() time.Time
}

// NewOrchestrator wires both backends with fresh availability breakers and
// rate limiters.
func NewOrchestrator(exaB, serperB Backend, c *cache.Cache, gov *budget.Governor, rates budget.Rates, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		backends: map[model.Backend]Backend{},
		breakers: map[model.Backend]*resilience.Breaker{},
		limiters: map[model.Backend]*rate.Limiter{},
		cache:    c,
		gov:      gov,
		rates:    rates,
		cfg:      cfg,
		nowFunc:  time.Now,
	}
	if exaB != nil {
		o.register(model.BackendExa, exaB)
	}
	if serperB != nil {
		o.register(model.BackendSerper, serperB)
	}
	return o
}

func (o *Orchestrator) register(b model.Backend, impl Backend) {
	o.backends[b] = impl
	o.breakers[b] = resilience.NewBreaker(string(b), resilience.DefaultBreakerConfig())
	o.limiters[b] = rate.NewLimiter(rate.Limit(o.cfg.RateLimitPerSec), 1)
}

// WithNow sets a fixed clock for testing.
func (o *Orchestrator) WithNow(fn func() time.Time) *Orchestrator {
	o.nowFunc = fn
	return o
}

// Execute runs probe and, if the probe fell short of the target, a
// performance-informed expansion. Partial results are always returned; the
// only fatal condition is both backends unavailable with nothing gathered.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.TargetOpportunities <= 0 {
		req.TargetOpportunities = defaultTarget
	}
	if req.MaxTime <= 0 {
		req.MaxTime = defaultMaxTime
	}

	if len(o.backends) == 0 {
		return &Result{ResultsByBackend: map[model.Backend][]model.SearchResult{}},
			eris.New("search: no backends configured")
	}

	log := zap.L().With(zap.Int("target", req.TargetOpportunities))
	deadline := o.nowFunc().Add(req.MaxTime)
	issued := make(map[string]struct{})

	res := &Result{
		Success:          true,
		ResultsByBackend: map[model.Backend][]model.SearchResult{},
	}

	// Probe.
	probeTasks := o.probeTasks(req.Categories, issued)
	allTasks := probeTasks
	probe := o.executeBatch(ctx, deadline, probeTasks, o.cfg.ProbeResultCap)
	mergeResults(res.ResultsByBackend, probe.results)

	probeAll := flatten(probe.results)
	probe.stats.Opportunities = process.CountQualityOpportunities(probeAll)
	res.Probe = probe.stats
	res.TotalOpportunities = probe.stats.Opportunities

	liveIssued := probe.stats.Queries - probe.stats.CacheHits
	liveFailed := probe.failed
	cached := probe.cacheHits

	if o.allUnavailable() && len(probeAll) == 0 {
		res.Success = false
		res.ResultsByBackend = map[model.Backend][]model.SearchResult{}
		return res, eris.New("search: both backends unavailable")
	}

	log.Info("probe complete",
		zap.Int("queries", probe.stats.Queries),
		zap.Int("results", probe.stats.Results),
		zap.Int("opportunities", probe.stats.Opportunities),
	)

	// Expand only when probe fell short.
	if res.TotalOpportunities < req.TargetOpportunities {
		plan := planExpansion(probe.stats.Opportunities, probe.stats.Results, o.cfg)
		expTasks := o.expansionTasks(req.Categories, issued, categoryPerformance(probeTasks, probeAll), plan)
		allTasks = append(allTasks, expTasks...)

		exp := o.executeBatch(ctx, deadline, expTasks, plan.ResultCap)
		mergeResults(res.ResultsByBackend, exp.results)

		expAll := flatten(exp.results)
		exp.stats.Opportunities = process.CountQualityOpportunities(expAll)
		res.Expansion = &exp.stats
		res.TotalOpportunities += exp.stats.Opportunities

		liveIssued += exp.stats.Queries - exp.stats.CacheHits
		liveFailed += exp.failed
		for k := range exp.cacheHits {
			cached[k] = struct{}{}
		}

		log.Info("expansion complete",
			zap.Int("queries", exp.stats.Queries),
			zap.Int("results", exp.stats.Results),
			zap.Int("opportunities", exp.stats.Opportunities),
		)
	}

	// Fresh breakers cannot trip within a single sub-threshold phase, so the
	// availability check above misses a run where both backends were down
	// from the first query. Catch that here: every live query failed and
	// nothing was gathered means no source was usable.
	if liveIssued > 0 && liveFailed == liveIssued && len(flatten(res.ResultsByBackend)) == 0 {
		res.Success = false
		res.ResultsByBackend = map[model.Backend][]model.SearchResult{}
		return res, eris.New("search: both backends unavailable, every query failed")
	}

	o.recordOutcomes(allTasks, res.ResultsByBackend, cached)

	return res, nil
}

// probeTasks selects at most two queries from each of the four
// best-performing categories, routed to their preferred available backend.
func (o *Orchestrator) probeTasks(set querygen.CategorySet, issued map[string]struct{}) []task {
	ranked := o.gov.RankCategories(set)
	if len(ranked) > probeCategoryCount {
		ranked = ranked[:probeCategoryCount]
	}

	var tasks []task
	for _, cat := range ranked {
		tasks = append(tasks, o.takeFromCategory(set, cat, probeQueriesPerCategory, issued)...)
	}
	return tasks
}

// takeFromCategory pulls up to n not-yet-issued queries from a category.
func (o *Orchestrator) takeFromCategory(set querygen.CategorySet, cat querygen.Category, n int, issued map[string]struct{}) []task {
	backend := o.routeFor(cat)
	if backend == "" {
		return nil
	}

	var tasks []task
	for _, q := range set[cat] {
		if len(tasks) >= n {
			break
		}
		key := issuedKey(q)
		if _, dup := issued[key]; dup {
			continue
		}
		issued[key] = struct{}{}
		tasks = append(tasks, task{
			query:   budget.Query{Text: q, Category: cat},
			backend: backend,
		})
	}
	return tasks
}

// routeFor returns the category's preferred backend, falling back to the
// other one when the preferred is marked unavailable. Empty when neither
// backend can take traffic.
func (o *Orchestrator) routeFor(cat querygen.Category) model.Backend {
	preferred := budget.RouteBackend(cat)
	if o.available(preferred) {
		return preferred
	}
	for b := range o.backends {
		if b != preferred && o.available(b) {
			return b
		}
	}
	return ""
}

func (o *Orchestrator) available(b model.Backend) bool {
	if _, ok := o.backends[b]; !ok {
		return false
	}
	return o.breakers[b].Available()
}

func (o *Orchestrator) allUnavailable() bool {
	for b := range o.backends {
		if o.available(b) {
			return false
		}
	}
	return true
}

// executeBatch fans the tasks out per backend with bounded concurrency.
// Cache hits are satisfied inline without consuming a concurrency slot or
// budget. Individual query failures degrade to empty result sets, counted in
// the batch's failed tally.
func (o *Orchestrator) executeBatch(ctx context.Context, deadline time.Time, tasks []task, perQueryCap int) batch {
	var mu sync.Mutex
	b := batch{
		results:   map[model.Backend][]model.SearchResult{},
		cacheHits: map[string]struct{}{},
	}

	byBackend := map[model.Backend][]task{}
	for _, t := range tasks {
		// Cache consultation happens before any slot is taken.
		if cached, ok := o.cache.Get(t.query.Text, t.backend); ok {
			b.results[t.backend] = append(b.results[t.backend], cached...)
			b.stats.Queries++
			b.stats.CacheHits++
			b.stats.Results += len(cached)
			b.cacheHits[issuedKey(t.query.Text)] = struct{}{}
			continue
		}
		byBackend[t.backend] = append(byBackend[t.backend], t)
	}

	var outer errgroup.Group
	for backend, queue := range byBackend {
		outer.Go(func() error {
			inner, innerCtx := errgroup.WithContext(ctx)
			inner.SetLimit(o.cfg.ConcurrencyPerBackend)

			for _, t := range queue {
				// Time budget: in-flight requests finish, no new ones start.
				if o.nowFunc().After(deadline) {
					zap.L().Warn("search: time budget exhausted, skipping remaining queries",
						zap.String("backend", string(backend)),
					)
					break
				}

				inner.Go(func() error {
					found, cost, failed := o.runQuery(innerCtx, t, perQueryCap)

					mu.Lock()
					b.stats.Queries++
					b.stats.Results += len(found)
					b.stats.CostUSD += cost
					if failed {
						b.failed++
					}
					b.results[t.backend] = append(b.results[t.backend], found...)
					mu.Unlock()
					return nil
				})
			}
			return inner.Wait()
		})
	}
	_ = outer.Wait()

	return b
}

// runQuery executes one live query. Failures are absorbed: the breaker and
// log record them, and the query contributes an empty result set with
// failed=true.
func (o *Orchestrator) runQuery(ctx context.Context, t task, perQueryCap int) ([]model.SearchResult, float64, bool) {
	breaker := o.breakers[t.backend]
	if !breaker.Available() {
		zap.L().Debug("search: backend unavailable, dropping query",
			zap.String("backend", string(t.backend)),
			zap.String("query", t.query.Text),
		)
		return nil, 0, true
	}

	if err := o.limiters[t.backend].Wait(ctx); err != nil {
		return nil, 0, true
	}

	found, err := o.backends[t.backend].Search(ctx, t.query.Text, perQueryCap)
	cost := o.rates.PerQuery(t.backend)
	o.gov.RecordUsage(t.backend, 1, cost)

	if err != nil {
		breaker.RecordFailure()
		zap.L().Warn("search: query failed",
			zap.String("backend", string(t.backend)),
			zap.String("query", t.query.Text),
			zap.Error(err),
		)
		return nil, cost, true
	}

	breaker.RecordSuccess()
	o.cache.Set(t.query.Text, t.backend, found)
	return found, cost, false
}

// recordOutcomes feeds per-category conversion back into the governor's
// effectiveness tracker.
func (o *Orchestrator) recordOutcomes(tasks []task, results map[model.Backend][]model.SearchResult, cached map[string]struct{}) {
	for cat, tl := range o.tallyOutcomes(tasks, results, cached) {
		o.gov.RecordOutcome(cat, tl.queries, tl.opps, tl.cost)
	}
}

// outcomeTally aggregates one category's queries, opportunities, and spend.
type outcomeTally struct {
	queries int
	opps    int
	cost    float64
}

// tallyOutcomes attributes opportunities to categories through each result's
// originating query. Cache-served queries count toward conversion but at
// zero cost, so cost-per-opportunity samples reflect actual spend.
func (o *Orchestrator) tallyOutcomes(tasks []task, results map[model.Backend][]model.SearchResult, cached map[string]struct{}) map[querygen.Category]*outcomeTally {
	byCat := map[querygen.Category]*outcomeTally{}
	queryCat := map[string]querygen.Category{}

	for _, t := range tasks {
		queryCat[t.query.Text] = t.query.Category
		tl := byCat[t.query.Category]
		if tl == nil {
			tl = &outcomeTally{}
			byCat[t.query.Category] = tl
		}
		tl.queries++
		if _, hit := cached[issuedKey(t.query.Text)]; !hit {
			tl.cost += o.rates.PerQuery(t.backend)
		}
	}

	for _, rs := range results {
		for _, r := range rs {
			cat, ok := queryCat[r.OriginalQuery]
			if !ok {
				continue
			}
			if process.HasGuestPostIndicator(r) {
				byCat[cat].opps++
			}
		}
	}

	return byCat
}

func issuedKey(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func mergeResults(dst, src map[model.Backend][]model.SearchResult) {
	for b, rs := range src {
		dst[b] = append(dst[b], rs...)
	}
}

func flatten(m map[model.Backend][]model.SearchResult) []model.SearchResult {
	var out []model.SearchResult
	for _, b := range model.AllBackends() {
		out = append(out, m[b]...)
	}
	return out
}
