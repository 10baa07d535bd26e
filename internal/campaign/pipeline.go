// Package campaign runs the end-to-end discovery pipeline: query generation,
// budget allocation, dual-source search, processing, analysis, and contact
// extraction, with run state persisted along the way.
package campaign

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/cache"
	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
	"github.com/sells-group/outreach-cli/internal/querygen"
	"github.com/sells-group/outreach-cli/internal/search"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/trends"
)

// Analyzer scores a processed result. Implemented by analyzer.Analyzer;
// declared here so tests can substitute a fake.
type Analyzer interface {
	Analyze(ctx context.Context, r model.SearchResult, keywords []string) (model.OpportunityCandidate, error)
}

// Pipeline wires the discovery stages together.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	gen      *querygen.Generator
	trends   trends.Provider
	gov      *budget.Governor
	cache    *cache.Cache
	orch     *search.Orchestrator
	analyzer Analyzer
	contacts *contact.PageExtractor
}

// New creates a Pipeline. trends and contacts may be nil; both are
// enhancements the pipeline degrades without.
func New(
	cfg *config.Config,
	st store.Store,
	trendProvider trends.Provider,
	gov *budget.Governor,
	resultCache *cache.Cache,
	orch *search.Orchestrator,
	an Analyzer,
	contacts *contact.PageExtractor,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		gen:      querygen.NewGenerator(),
		trends:   trendProvider,
		gov:      gov,
		cache:    resultCache,
		orch:     orch,
		analyzer: an,
		contacts: contacts,
	}
}

// RunOptions tunes a single discovery run.
type RunOptions struct {
	// BudgetLimit, when positive, lowers the size preset's per-campaign cap.
	BudgetLimit float64

	// TargetOpportunities is the stop-early goal for the search phase.
	TargetOpportunities int

	// MaxTime bounds the search phase wall clock.
	MaxTime time.Duration
}

// Result is the outcome of one discovery run.
type Result struct {
	RunID        string                       `json:"run_id"`
	Candidates   []model.OpportunityCandidate `json:"candidates"`
	Stats        model.RunStats               `json:"stats"`
	BudgetStatus budget.Status                `json:"budget_status"`
	Search       *search.Result               `json:"search"`
}

// Opportunities returns only the candidates that passed the gate.
func (r *Result) Opportunities() []model.OpportunityCandidate {
	var out []model.OpportunityCandidate
	for _, c := range r.Candidates {
		if c.IsOpportunity {
			out = append(out, c)
		}
	}
	return out
}

// Run executes the full discovery pipeline for one campaign.
func (p *Pipeline) Run(ctx context.Context, c model.Campaign, opts RunOptions) (*Result, error) {
	if !c.Size.Valid() {
		return nil, eris.Errorf("campaign: unknown size %q", c.Size)
	}
	if len(c.Keywords) == 0 {
		return nil, eris.New("campaign: at least one keyword is required")
	}

	log := zap.L().With(
		zap.Strings("keywords", c.Keywords),
		zap.String("size", string(c.Size)),
	)
	log.Info("campaign: starting discovery run")
	start := time.Now()

	run, err := p.store.CreateRun(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "campaign: create run")
	}

	setStatus := func(status model.RunStatus) {
		if serr := p.store.UpdateRunStatus(ctx, run.ID, status); serr != nil {
			log.Warn("campaign: failed to update run status", zap.Error(serr))
		}
	}
	fail := func(cause error, msg string) (*Result, error) {
		setStatus(model.RunStatusFailed)
		return nil, eris.Wrap(cause, msg)
	}

	setStatus(model.RunStatusSearching)

	// Trend signals are an enhancement; a failed provider just means no
	// trending/seasonal categories this run.
	var signals *trends.Signals
	if p.trends != nil {
		signals, err = p.trends.Analyze(ctx, c.Keywords)
		if err != nil {
			log.Warn("campaign: trend analysis unavailable", zap.Error(err))
			signals = nil
		}
	}

	preset, err := budget.PresetFor(c.Size)
	if err != nil {
		return fail(err, "campaign: resolve preset")
	}

	set := p.gen.Generate(c.Keywords, c.Industry, preset.MaxQueriesPerCategory, signals)
	log.Info("campaign: queries generated",
		zap.Int("categories", len(set)),
		zap.Int("queries", set.TotalQueries()),
	)

	cached := func(b model.Backend, q string) bool { return p.cache.Has(q, b) }
	alloc, err := p.gov.Allocate(set, c.Size, opts.BudgetLimit, cached)
	if err != nil {
		return fail(err, "campaign: allocate budget")
	}
	log.Info("campaign: budget allocated",
		zap.Int("queries", alloc.TotalQueries()),
		zap.Float64("estimated_cost", alloc.EstimatedCost),
	)

	searchRes, err := p.orch.Execute(ctx, search.Request{
		Categories:          allocatedSet(alloc),
		TargetOpportunities: opts.TargetOpportunities,
		MaxTime:             opts.MaxTime,
	})
	if err != nil && (searchRes == nil || !searchRes.Success) {
		return fail(err, "campaign: search")
	}

	processed := process.Process(
		searchRes.ResultsByBackend[model.BackendExa],
		searchRes.ResultsByBackend[model.BackendSerper],
	)

	setStatus(model.RunStatusAnalyzing)

	candidates := make([]model.OpportunityCandidate, 0, len(processed))
	for _, r := range processed {
		cand, aerr := p.analyzer.Analyze(ctx, r, c.Keywords)
		if aerr != nil {
			log.Warn("campaign: analysis failed for result",
				zap.String("url", r.URL),
				zap.Error(aerr),
			)
			continue
		}
		if cand.IsOpportunity && p.contacts != nil {
			if cr, cerr := p.contacts.Extract(ctx, r.URL, r.Snippet, r.Title); cerr == nil && cr.HasEmails {
				cand.ContactEmail = cr.BestEmail
			}
		}
		candidates = append(candidates, cand)
	}

	if err := p.store.SaveOpportunities(ctx, run.ID, candidates); err != nil {
		return fail(err, "campaign: save opportunities")
	}

	stats := buildStats(time.Since(start), searchRes, len(processed), candidates)
	if err := p.store.CompleteRun(ctx, run.ID, &stats); err != nil {
		return fail(err, "campaign: complete run")
	}

	if err := p.store.SaveLedger(ctx, p.gov.Snapshot()); err != nil {
		log.Warn("campaign: failed to persist ledger", zap.Error(err))
	}

	status := p.gov.Status()
	if status.Severity != budget.SeverityNormal {
		log.Warn("campaign: budget pressure",
			zap.String("severity", string(status.Severity)),
			zap.Float64("monthly_spent", status.MonthlySpent),
			zap.Float64("monthly_limit", status.MonthlyLimit),
		)
	}

	res := &Result{
		RunID:        run.ID,
		Candidates:   candidates,
		Stats:        stats,
		BudgetStatus: status,
		Search:       searchRes,
	}
	log.Info("campaign: run complete",
		zap.String("run_id", run.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("opportunities", len(res.Opportunities())),
		zap.Duration("elapsed", stats.ExecutionTime),
	)
	return res, nil
}

// allocatedSet converts a budget allocation back into a category set for the
// orchestrator, preserving allocation order within each category.
func allocatedSet(alloc *budget.Allocation) querygen.CategorySet {
	set := querygen.CategorySet{}
	for _, qs := range alloc.Queries {
		for _, q := range qs {
			set[q.Category] = append(set[q.Category], q.Text)
		}
	}
	return set
}

func buildStats(elapsed time.Duration, sr *search.Result, processed int, candidates []model.OpportunityCandidate) model.RunStats {
	stats := model.RunStats{
		ExecutionTime:    elapsed,
		ProcessedResults: processed,
	}

	stats.TotalQueries = sr.Probe.Queries
	stats.CacheHits = sr.Probe.CacheHits
	stats.CostEstimate = sr.Probe.CostUSD
	stats.RawResults = sr.Probe.Results
	if sr.Expansion != nil {
		stats.TotalQueries += sr.Expansion.Queries
		stats.CacheHits += sr.Expansion.CacheHits
		stats.CostEstimate += sr.Expansion.CostUSD
		stats.RawResults += sr.Expansion.Results
	}

	for _, c := range candidates {
		if c.IsOpportunity {
			stats.FinalCount++
		}
	}
	return stats
}
