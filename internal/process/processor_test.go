package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func result(url, title, snippet string, backend model.Backend) model.SearchResult {
	return model.SearchResult{URL: url, Title: title, Snippet: snippet, Backend: backend, OriginalQuery: "q"}
}

func TestProcess_DeduplicatesNormalizedURLs(t *testing.T) {
	t.Parallel()

	exa := []model.SearchResult{
		result("https://Example.com/Write-For-Us/", "Write For Us - Example Blog", "We accept guest post submissions on marketing topics.", model.BackendExa),
	}
	serper := []model.SearchResult{
		result("https://example.com/write-for-us", "Write For Us - Example Blog", "Guest post guidelines for contributors and writers here.", model.BackendSerper),
	}

	out := Process(exa, serper)
	require.Len(t, out, 1)
	// First occurrence wins.
	assert.Equal(t, model.BackendExa, out[0].Backend)
	assert.Equal(t, "https://Example.com/Write-For-Us/", out[0].URL)
}

func TestProcess_RemovesDenylistedDomains(t *testing.T) {
	t.Parallel()

	in := []model.SearchResult{
		result("https://www.facebook.com/groups/guestposting", "Guest Posting Group", "A group about guest post opportunities and outreach campaigns.", model.BackendSerper),
		result("https://en.wikipedia.org/wiki/Guest_blogging", "Guest blogging - Wikipedia", "Guest blogging is the practice of contributing a post to another blog.", model.BackendSerper),
		result("https://marketingblog.io/write-for-us", "Write For Us | Marketing Blog", "Submit a guest post about content marketing and SEO strategy.", model.BackendExa),
	}

	out := Process(in, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "https://marketingblog.io/write-for-us", out[0].URL)
}

func TestProcess_FiltersThinResults(t *testing.T) {
	t.Parallel()

	in := []model.SearchResult{
		result("https://thin.example.com/a", "Short", "tiny", model.BackendExa),
		result("https://titled.example.com/b", "A Sufficiently Long Title Here", "", model.BackendExa),
		result("", "No URL At All Result", "Should be dropped because the URL normalizes to empty string.", model.BackendExa),
	}

	out := Process(in, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "https://titled.example.com/b", out[0].URL)
}

func TestProcess_OrdersByPotentialScore(t *testing.T) {
	t.Parallel()

	plain := result("https://plainblog.net/post", "Ten Content Marketing Ideas", "A listicle about marketing ideas with no submission signals at all.", model.BackendSerper)
	indicator := result("https://writers.example.io/write-for-us", "Write For Us", "We welcome guest post pitches from freelance marketing writers.", model.BackendSerper)
	authority := result("https://journalism.example.edu/contribute", "Contribute To Our Journal", "Submission guidelines for outside contributors, plus a style guide and editorial calendar covering pitches, drafts, revisions, and publication timelines for all accepted guest article submissions this year.", model.BackendExa)

	out := Process([]model.SearchResult{plain, indicator, authority}, nil)
	require.Len(t, out, 3)
	assert.Equal(t, authority.URL, out[0].URL, "indicator + .edu + long content ranks first")
	assert.Equal(t, indicator.URL, out[1].URL)
	assert.Equal(t, plain.URL, out[2].URL)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/write-for-us", NormalizeURL("https://Example.com/Write-For-Us/"))
	assert.Equal(t, "https://example.com", NormalizeURL("  https://example.com/  "))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"https with www", "https://www.Example.com/write-for-us", "example.com"},
		{"subdomain kept", "https://blog.example.co.uk/contribute", "blog.example.co.uk"},
		{"bare domain", "example.org", "example.org"},
		{"with port", "https://example.com:8080/page", "example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Domain(tt.raw))
		})
	}
}

func TestHasGuestPostIndicator(t *testing.T) {
	t.Parallel()

	yes := result("https://a.example.com", "Submission Guidelines", "How to pitch us.", model.BackendExa)
	no := result("https://b.example.com", "Our Favorite Recipes", "Dinner ideas for the whole family this autumn season.", model.BackendExa)

	assert.True(t, HasGuestPostIndicator(yes))
	assert.False(t, HasGuestPostIndicator(no))
	assert.Equal(t, 1, CountQualityOpportunities([]model.SearchResult{yes, no}))
}
