package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// fakeChecker is a canned SignalChecker.
type fakeChecker struct {
	answer bool
	err    error
	calls  int
}

func (f *fakeChecker) HasGuestPostSignal(ctx context.Context, title, content string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

func eduResult() model.SearchResult {
	return model.SearchResult{
		URL:   "https://journalism.example.edu/write-for-us",
		Title: "Write For Us - Journalism Program Blog",
		Snippet: "Our editorial team welcomes guest post submissions on media research " +
			"and industry analysis.\n\nReview our submission guidelines before pitching. " +
			"We publish case study pieces and expert insights from working professionals.",
		Backend:       model.BackendExa,
		OriginalQuery: `"write for us" journalism`,
	}
}

func TestAnalyze_AcceptsStrongCandidate(t *testing.T) {
	t.Parallel()
	a := New(config.AnalyzerConfig{}, nil)

	cand, err := a.Analyze(context.Background(), eduResult(), []string{"journalism", "media"})
	require.NoError(t, err)

	assert.True(t, cand.IsOpportunity)
	assert.Equal(t, model.ConfidenceHigh, cand.Confidence)
	assert.GreaterOrEqual(t, cand.AuthorityScore, 0.8, ".edu domain earns the authority bonus")
	assert.GreaterOrEqual(t, cand.RelevanceScore, 0.5)
	assert.LessOrEqual(t, cand.SpamRiskScore, 0.2)
}

func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()
	a := New(config.AnalyzerConfig{}, nil)

	first, err := a.Analyze(context.Background(), eduResult(), []string{"journalism"})
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), eduResult(), []string{"journalism"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyze_RejectsWithoutSignal(t *testing.T) {
	t.Parallel()
	a := New(config.AnalyzerConfig{}, nil)

	r := model.SearchResult{
		URL:           "https://news.example.com/industry-roundup",
		Title:         "Weekly Industry Research Roundup",
		Snippet:       "Analysis and insights from across the sector, compiled by our staff writers every Friday morning.",
		Backend:       model.BackendSerper,
		OriginalQuery: "industry news",
	}

	cand, err := a.Analyze(context.Background(), r, []string{"industry"})
	require.NoError(t, err)
	assert.False(t, cand.IsOpportunity, "no guest-post signal fails the gate regardless of scores")
}

func TestAnalyze_SpamGate(t *testing.T) {
	t.Parallel()
	a := New(config.AnalyzerConfig{}, nil)

	r := model.SearchResult{
		URL:   "https://deals.blogspot.com/best-casino-bonus-codes-2026-top-10-sites-777",
		Title: "Guest Post: Casino Bonus Discount Code Click Here",
		Snippet: "Limited time offer! Click here for a discount code. Buy now and get " +
			"100% free spins at our partner casino sites today.",
		Backend:       model.BackendSerper,
		OriginalQuery: "guest post",
	}

	cand, err := a.Analyze(context.Background(), r, []string{"casino"})
	require.NoError(t, err)
	assert.False(t, cand.IsOpportunity, "spam risk above the ceiling fails the gate")
	assert.Greater(t, cand.SpamRiskScore, 0.6)
}

func TestAnalyze_LLMConsultedOnlyWhenUseful(t *testing.T) {
	t.Parallel()

	longContent := strings.Repeat("Our publication shares industry research and expert analysis. ", 15)

	t.Run("skipped when phrase signal present", func(t *testing.T) {
		t.Parallel()
		llm := &fakeChecker{answer: true}
		a := New(config.AnalyzerConfig{}, llm)

		_, err := a.Analyze(context.Background(), eduResult(), []string{"journalism"})
		require.NoError(t, err)
		assert.Zero(t, llm.calls)
	})

	t.Run("skipped for short content", func(t *testing.T) {
		t.Parallel()
		llm := &fakeChecker{answer: true}
		a := New(config.AnalyzerConfig{}, llm)

		r := model.SearchResult{
			URL:     "https://short.example.com/about",
			Title:   "About Our Publication Team",
			Snippet: "A short page about the editorial team and what we cover in depth.",
			Backend: model.BackendExa,
		}
		_, err := a.Analyze(context.Background(), r, []string{"media"})
		require.NoError(t, err)
		assert.Zero(t, llm.calls)
	})

	t.Run("confirms missed signal", func(t *testing.T) {
		t.Parallel()
		llm := &fakeChecker{answer: true}
		a := New(config.AnalyzerConfig{}, llm)

		r := model.SearchResult{
			URL:     "https://longform.example.org/contribute-info",
			Title:   "Information For Prospective Authors",
			Snippet: longContent,
			Backend: model.BackendExa,
		}
		cand, err := a.Analyze(context.Background(), r, []string{"industry", "research"})
		require.NoError(t, err)
		assert.Equal(t, 1, llm.calls)
		assert.True(t, cand.IsOpportunity)
		assert.Equal(t, model.ConfidenceLow, cand.Confidence, "llm-only signal stays low confidence")
	})

	t.Run("llm failure degrades to no signal", func(t *testing.T) {
		t.Parallel()
		llm := &fakeChecker{err: eris.New("anthropic: create message: status 529")}
		a := New(config.AnalyzerConfig{}, llm)

		r := model.SearchResult{
			URL:     "https://longform.example.org/contribute-info",
			Title:   "Information For Prospective Authors",
			Snippet: longContent,
			Backend: model.BackendExa,
		}
		cand, err := a.Analyze(context.Background(), r, []string{"industry"})
		require.NoError(t, err)
		assert.Equal(t, 1, llm.calls)
		assert.False(t, cand.IsOpportunity)
	})
}

func TestAnalyze_ConfidenceBands(t *testing.T) {
	t.Parallel()
	a := New(config.AnalyzerConfig{}, nil)

	// One moderate signal lands in the medium band.
	r := model.SearchResult{
		URL:   "https://writers.example.net/opportunities",
		Title: "Opportunities For Freelance Writers",
		Snippet: "We occasionally publish pieces from outside experts. See our submission " +
			"guidelines for research and analysis articles on industry best practices.",
		Backend: model.BackendExa,
	}
	cand, err := a.Analyze(context.Background(), r, []string{"writing"})
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceMedium, cand.Confidence)
}

func TestDetectSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		any    bool
		weight float64
	}{
		{"write for us", "please Write For Us today", true, 0.50},
		{"guidelines", "see our submission guidelines", true, 0.35},
		{"guest post", "we love a good guest post", true, 0.30},
		{"stacked capped", "write for us guest post submission guidelines", true, 1.0},
		{"none", "a plain page about gardening", false, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := detectSignals("", tt.text)
			assert.Equal(t, tt.any, s.Any())
			assert.InDelta(t, tt.weight, s.Weight(), 1e-9)
		})
	}
}

func TestScoreHelpers(t *testing.T) {
	t.Parallel()

	t.Run("relevance empty keywords", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, relevanceScore(eduResult(), nil))
	})

	t.Run("relevance capped at one", func(t *testing.T) {
		t.Parallel()
		r := model.SearchResult{Title: "seo seo seo", Snippet: "seo"}
		assert.InDelta(t, 1.0, relevanceScore(r, []string{"seo"}), 1e-9)
	})

	t.Run("authority free blog host penalized", func(t *testing.T) {
		t.Parallel()
		r := model.SearchResult{URL: "https://myniche.blogspot.com/write-for-us"}
		assert.InDelta(t, 0.3, authorityScore(r), 1e-9)
	})

	t.Run("authority academic country code", func(t *testing.T) {
		t.Parallel()
		r := model.SearchResult{URL: "https://research.example.ac.uk/contribute"}
		assert.InDelta(t, 0.7, authorityScore(r), 1e-9)
	})
}
