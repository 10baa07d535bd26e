package campaign

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/cache"
	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/search"
	"github.com/sells-group/outreach-cli/internal/store"
)

// fakeBackend returns one indicator-bearing result per query.
type fakeBackend struct {
	mu      sync.Mutex
	backend model.Backend
	calls   int
}

func (f *fakeBackend) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	return []model.SearchResult{{
		URL:           fmt.Sprintf("https://site%d.%s.example.com/write-for-us", n, f.backend),
		Title:         "Write For Us - Marketing Blog",
		Snippet:       "We accept guest post submissions on content marketing. Email editor@example.com with a pitch.",
		Backend:       f.backend,
		OriginalQuery: query,
	}}, nil
}

// fakeAnalyzer gates on the guest-post phrase in the title.
type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(ctx context.Context, r model.SearchResult, keywords []string) (model.OpportunityCandidate, error) {
	return model.OpportunityCandidate{
		SearchResult:   r,
		RelevanceScore: 0.8,
		Confidence:     model.ConfidenceHigh,
		IsOpportunity:  strings.Contains(strings.ToLower(r.Title), "write for us"),
	}, nil
}

func newTestPipeline(t *testing.T, exaB, serperB search.Backend) (*Pipeline, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	gov, err := budget.NewGovernor(budget.DefaultRates(), 100)
	require.NoError(t, err)

	resultCache := cache.New(time.Hour)
	orch := search.NewOrchestrator(exaB, serperB, resultCache, gov, budget.DefaultRates(), search.Config{
		RateLimitPerSec: 1000,
	})

	return New(&config.Config{}, st, nil, gov, resultCache, orch, fakeAnalyzer{}, nil), st
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	exaB := &fakeBackend{backend: model.BackendExa}
	serperB := &fakeBackend{backend: model.BackendSerper}
	p, st := newTestPipeline(t, exaB, serperB)
	ctx := context.Background()

	c := model.Campaign{
		ID:       "campaign-1",
		Keywords: []string{"content marketing"},
		Industry: "marketing",
		Size:     model.CampaignMedium,
	}

	res, err := p.Run(ctx, c, RunOptions{TargetOpportunities: 3})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	// Probe alone meets a target of 3.
	assert.Equal(t, 8, res.Stats.TotalQueries)
	assert.Nil(t, res.Search.Expansion)
	assert.NotEmpty(t, res.Candidates)
	assert.NotEmpty(t, res.Opportunities())
	assert.Equal(t, len(res.Opportunities()), res.Stats.FinalCount)
	assert.InDelta(t, 8*0.005, res.Stats.CostEstimate, 1e-9)

	// Run state persisted.
	run, err := st.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Stats)
	assert.Equal(t, res.Stats.TotalQueries, run.Stats.TotalQueries)

	saved, err := st.ListOpportunities(ctx, store.OpportunityFilter{RunID: res.RunID})
	require.NoError(t, err)
	assert.Len(t, saved, len(res.Candidates))

	// Ledger snapshot persisted alongside the run.
	ledger, err := st.LoadLedger(ctx)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.InDelta(t, res.Stats.CostEstimate, ledger.MonthlySpent, 1e-9)
}

func TestRun_ValidatesCampaign(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeBackend{backend: model.BackendExa}, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, model.Campaign{Keywords: []string{"seo"}, Size: "giant"}, RunOptions{})
	assert.Error(t, err)

	_, err = p.Run(ctx, model.Campaign{Size: model.CampaignSmall}, RunOptions{})
	assert.Error(t, err)
}

func TestRun_SearchFailureMarksRunFailed(t *testing.T) {
	t.Parallel()

	// No backends configured: the orchestrator's only fatal condition.
	p, st := newTestPipeline(t, nil, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, model.Campaign{
		Keywords: []string{"seo"},
		Size:     model.CampaignSmall,
	}, RunOptions{})
	require.Error(t, err)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
}

func TestRun_CachedSecondRunCostsNothing(t *testing.T) {
	t.Parallel()

	exaB := &fakeBackend{backend: model.BackendExa}
	serperB := &fakeBackend{backend: model.BackendSerper}
	p, _ := newTestPipeline(t, exaB, serperB)
	ctx := context.Background()

	c := model.Campaign{
		Keywords: []string{"content marketing"},
		Industry: "marketing",
		Size:     model.CampaignMedium,
	}

	first, err := p.Run(ctx, c, RunOptions{TargetOpportunities: 3})
	require.NoError(t, err)
	require.Greater(t, first.Stats.CostEstimate, 0.0)

	second, err := p.Run(ctx, c, RunOptions{TargetOpportunities: 3})
	require.NoError(t, err)
	assert.Equal(t, second.Stats.TotalQueries, second.Stats.CacheHits, "identical campaign replays from cache")
	assert.Zero(t, second.Stats.CostEstimate)
}
