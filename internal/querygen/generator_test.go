package querygen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/trends"
)

func TestGenerate_CoreCategories(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	set := g.Generate([]string{"content marketing"}, "marketing", 5, nil)

	for _, cat := range CoreCategories() {
		assert.NotEmpty(t, set[cat], "category %s should be populated", cat)
	}
	assert.NotContains(t, set, CategoryTrending)
	assert.NotContains(t, set, CategorySeasonal)

	assert.Contains(t, set[CategoryPrimary], `"write for us" content marketing`)
	assert.Contains(t, set[CategoryOperators], `intitle:"write for us" content marketing`)
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	first := g.Generate([]string{"seo", "link building"}, "technology", 4, nil)
	second := g.Generate([]string{"seo", "link building"}, "technology", 4, nil)
	assert.Equal(t, first, second)
}

func TestGenerate_NoDuplicateQueriesWithinCategory(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	// Duplicate and case-variant keywords collapse to one.
	set := g.Generate([]string{"SEO", "seo", " seo "}, "", 5, nil)

	for cat, queries := range set {
		seen := make(map[string]struct{})
		for _, q := range queries {
			key := strings.ToLower(q)
			_, dup := seen[key]
			require.False(t, dup, "duplicate query %q in category %s", q, cat)
			seen[key] = struct{}{}
		}
	}
}

func TestGenerate_RespectsPerCategoryCap(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	set := g.Generate([]string{"seo", "ppc", "email marketing", "analytics"}, "marketing", 2, nil)
	for cat, queries := range set {
		assert.LessOrEqual(t, len(queries), 2, "category %s over cap", cat)
	}
}

func TestGenerate_KeywordNormalizationBounds(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	tooLong := strings.Repeat("x", 60)
	set := g.Generate([]string{"a", tooLong, "valid keyword"}, "", 5, nil)

	for _, queries := range set {
		for _, q := range queries {
			assert.NotContains(t, q, tooLong)
		}
	}
	assert.NotContains(t, set[CategoryPrimary], `"write for us" a`)
	assert.Contains(t, set[CategoryPrimary], `"write for us" valid keyword`)
}

func TestGenerate_MinimalFallback(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	set := g.Generate([]string{"", "x"}, "", 5, nil)
	assert.True(t, set.Minimal())
	require.Len(t, set[CategoryPrimary], 1)
	assert.Equal(t, `"write for us" x`, set[CategoryPrimary][0])

	empty := g.Generate(nil, "", 5, nil)
	assert.True(t, empty.Minimal())
	assert.Equal(t, `"write for us" guest post`, empty[CategoryPrimary][0])
}

func TestGenerate_UnknownIndustryFallsBack(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	set := g.Generate([]string{"procurement"}, "logistics", 5, nil)
	require.NotEmpty(t, set[CategoryIndustry])
	assert.Contains(t, set[CategoryIndustry][0], "business")
}

func TestGenerate_TrendSignals(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	sig := &trends.Signals{
		RisingQueries: []string{"ai content tools", "AI Content Tools", "seo"},
		InterestByMonth: map[time.Month]float64{
			time.January:  20,
			time.June:     90,
			time.December: 95,
		},
	}

	set := g.Generate([]string{"seo"}, "", 3, sig)

	require.NotEmpty(t, set[CategoryTrending])
	assert.Contains(t, set[CategoryTrending], `"write for us" ai content tools`)

	require.NotEmpty(t, set[CategorySeasonal])
	joined := strings.Join(set[CategorySeasonal], " ")
	assert.Contains(t, joined, "december")
	assert.NotContains(t, joined, "january")
}

func TestCategorySet_TotalQueries(t *testing.T) {
	t.Parallel()

	set := CategorySet{
		CategoryPrimary:   {"a query one", "a query two"},
		CategoryOperators: {"another query"},
	}
	assert.Equal(t, 3, set.TotalQueries())
	assert.False(t, set.Minimal())
}

func TestValidQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    string
		want bool
	}{
		{"normal", `"write for us" marketing`, true},
		{"too short", "abcd", false},
		{"too long", strings.Repeat("q", 201), false},
		{"unbalanced quote", `"write for us marketing`, false},
		{"no letters", "12345 678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, validQuery(tt.q))
		})
	}
}
