package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testCampaign(keywords ...string) model.Campaign {
	return model.Campaign{
		ID:       "campaign-1",
		Keywords: keywords,
		Industry: "marketing",
		Size:     model.CampaignMedium,
	}
}

func testCandidate(url string, isOpp bool, relevance float64) model.OpportunityCandidate {
	return model.OpportunityCandidate{
		SearchResult: model.SearchResult{
			URL:           url,
			Title:         "Write For Us",
			Snippet:       "Guest post guidelines for contributors.",
			Backend:       model.BackendExa,
			OriginalQuery: `"write for us" marketing`,
		},
		RelevanceScore:      relevance,
		ContentQualityScore: 0.6,
		AuthorityScore:      0.5,
		SpamRiskScore:       0.1,
		Confidence:          model.ConfidenceHigh,
		IsOpportunity:       isOpp,
		ContactEmail:        "editor@example.com",
	}
}

func TestSQLite_RunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testCampaign("seo"))
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusSearching))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSearching, got.Status)
	assert.Equal(t, []string{"seo"}, got.Campaign.Keywords)
	assert.Nil(t, got.Stats)

	stats := &model.RunStats{
		ExecutionTime: 42 * time.Second,
		TotalQueries:  14,
		FinalCount:    6,
		CostEstimate:  0.07,
		CacheHits:     2,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, stats))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 14, got.Stats.TotalQueries)
	assert.InDelta(t, 0.07, got.Stats.CostEstimate, 1e-9)
}

func TestSQLite_RunNotFound(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.Error(t, err)
	assert.Error(t, s.UpdateRunStatus(ctx, "missing", model.RunStatusFailed))
	assert.Error(t, s.CompleteRun(ctx, "missing", &model.RunStats{}))
}

func TestSQLite_ListRuns(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, testCampaign("seo", "link building"))
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, testCampaign("email marketing"))
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, second.ID, model.RunStatusFailed))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, second.ID, failed[0].ID)

	byKeyword, err := s.ListRuns(ctx, RunFilter{Keyword: "link building"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, first.ID, byKeyword[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Opportunities(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testCampaign("seo"))
	require.NoError(t, err)

	candidates := []model.OpportunityCandidate{
		testCandidate("https://a.example.com/write-for-us", true, 0.9),
		testCandidate("https://b.example.com/blog", false, 0.4),
		testCandidate("https://c.example.edu/contribute", true, 0.7),
	}
	require.NoError(t, s.SaveOpportunities(ctx, run.ID, candidates))

	all, err := s.ListOpportunities(ctx, OpportunityFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by relevance, best first.
	assert.Equal(t, "https://a.example.com/write-for-us", all[0].URL)
	assert.Equal(t, "editor@example.com", all[0].ContactEmail)
	assert.Equal(t, model.BackendExa, all[0].Backend)

	opps, err := s.ListOpportunities(ctx, OpportunityFilter{RunID: run.ID, OnlyOpportunities: true})
	require.NoError(t, err)
	assert.Len(t, opps, 2)

	relevant, err := s.ListOpportunities(ctx, OpportunityFilter{RunID: run.ID, MinRelevance: 0.8})
	require.NoError(t, err)
	require.Len(t, relevant, 1)
	assert.Equal(t, "https://a.example.com/write-for-us", relevant[0].URL)

	confident, err := s.ListOpportunities(ctx, OpportunityFilter{Confidence: model.ConfidenceHigh})
	require.NoError(t, err)
	assert.Len(t, confident, 3)
}

func TestSQLite_SaveOpportunitiesEmpty(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	assert.NoError(t, s.SaveOpportunities(context.Background(), "any", nil))
}

func TestSQLite_Ledger(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	// No snapshot yet.
	l, err := s.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Nil(t, l)

	saved := budget.Ledger{
		MonthlyLimit: 25,
		MonthlySpent: 4.5,
		DailySpent:   1.25,
		SpendByBackend: map[string]float64{
			"exa":    3.0,
			"serper": 1.5,
		},
		LastReset: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveLedger(ctx, saved))

	l, err = s.LoadLedger(ctx)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.InDelta(t, 4.5, l.MonthlySpent, 1e-9)
	assert.InDelta(t, 3.0, l.SpendByBackend["exa"], 1e-9)

	// The singleton row is overwritten, not appended.
	saved.MonthlySpent = 9.0
	require.NoError(t, s.SaveLedger(ctx, saved))
	l, err = s.LoadLedger(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, l.MonthlySpent, 1e-9)
}
