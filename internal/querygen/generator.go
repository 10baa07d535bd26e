// Package querygen turns seed keywords into categorized search queries.
package querygen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/outreach-cli/internal/trends"
)

const (
	minKeywordLen = 2
	maxKeywordLen = 50
	maxKeywords   = 5

	minQueryLen = 5
	maxQueryLen = 200
)

// CategorySet maps category names to ordered query lists. Invariant: no
// category holds case-insensitive duplicate queries.
type CategorySet map[Category][]string

// TotalQueries returns the number of queries across all categories.
func (s CategorySet) TotalQueries() int {
	n := 0
	for _, qs := range s {
		n += len(qs)
	}
	return n
}

// Minimal reports whether the set is the degraded single-category,
// single-query fallback. Callers should treat a minimal set as a signal of
// partial generation failure, not an ordinary result.
func (s CategorySet) Minimal() bool {
	return len(s) == 1 && s.TotalQueries() == 1
}

// Generator composes categorized search queries from seed keywords.
type Generator struct {
	lower cases.Caser
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{lower: cases.Lower(language.English)}
}

// Generate builds the category set. Generation never fails: with unusable
// input it degrades to a minimal single-query set and logs a warning.
// With identical inputs and no trend signals the output is deterministic.
func (g *Generator) Generate(keywords []string, industry string, maxPerCategory int, sig *trends.Signals) CategorySet {
	if maxPerCategory <= 0 {
		maxPerCategory = 5
	}

	normalized := g.normalizeKeywords(keywords)
	if len(normalized) == 0 {
		zap.L().Warn("querygen: no usable keywords, degrading to minimal set",
			zap.Strings("keywords", keywords),
		)
		return g.minimalFallback(keywords)
	}

	set := CategorySet{}
	set.fill(CategoryPrimary, primaryTemplates, normalized, maxPerCategory)
	set.fill(CategoryOperators, operatorTemplates, normalized, maxPerCategory)
	set.fill(CategoryIndustry, industryTemplatesFor(industry), normalized, maxPerCategory)
	set.fill(CategorySemantic, semanticTemplates, normalized, maxPerCategory)
	set.fill(CategoryAuthority, authorityTemplates, normalized, maxPerCategory)
	set.fill(CategoryFresh, freshTemplates, normalized, maxPerCategory)

	if sig != nil {
		g.addTrendCategories(set, normalized, maxPerCategory, sig)
	}

	set.validate()

	if set.TotalQueries() == 0 {
		zap.L().Warn("querygen: all generated queries invalid, degrading to minimal set")
		return g.minimalFallback(keywords)
	}

	return set
}

// normalizeKeywords lowercases, trims, deduplicates, and bounds keywords,
// keeping at most maxKeywords ordered shortest-first so broader terms lead.
func (g *Generator) normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, kw := range keywords {
		k := strings.TrimSpace(g.lower.String(norm.NFKC.String(kw)))
		if len(k) < minKeywordLen || len(k) > maxKeywordLen {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) < len(out[j]) })

	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}

// fill appends templated queries for each keyword, deduplicating
// case-insensitively and capping at maxPerCategory.
func (s CategorySet) fill(cat Category, templates []string, keywords []string, maxPerCategory int) {
	seen := make(map[string]struct{})
	var queries []string

outer:
	for _, tmpl := range templates {
		for _, kw := range keywords {
			if len(queries) >= maxPerCategory {
				break outer
			}
			q := fmt.Sprintf(tmpl, kw)
			key := strings.ToLower(q)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			queries = append(queries, q)
		}
	}

	if len(queries) > 0 {
		s[cat] = queries
	}
}

func industryTemplatesFor(industry string) []string {
	key := strings.ToLower(strings.TrimSpace(industry))
	if tmpl, ok := industryTemplates[key]; ok {
		return tmpl
	}
	return industryTemplates[defaultIndustry]
}

// addTrendCategories derives trending queries from rising topics/queries and
// seasonal queries from peak-interest months. Each category is independently
// capped.
func (g *Generator) addTrendCategories(set CategorySet, keywords []string, maxPerCategory int, sig *trends.Signals) {
	rising := append(append([]string{}, sig.RisingTopics...), sig.RisingQueries...)
	if len(rising) > 0 {
		var normRising []string
		seen := make(map[string]struct{})
		for _, r := range rising {
			k := strings.TrimSpace(g.lower.String(r))
			if len(k) < minKeywordLen || len(k) > maxKeywordLen {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			normRising = append(normRising, k)
		}
		set.fill(CategoryTrending, trendingTemplates, normRising, maxPerCategory)
	}

	months := sig.PeakMonths()
	if len(months) > 0 && len(keywords) > 0 {
		seen := make(map[string]struct{})
		var queries []string
	outer:
		for _, tmpl := range seasonalTemplates {
			for _, m := range months {
				if len(queries) >= maxPerCategory {
					break outer
				}
				q := fmt.Sprintf(tmpl, keywords[0], strings.ToLower(m.String()))
				key := strings.ToLower(q)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				queries = append(queries, q)
			}
		}
		if len(queries) > 0 {
			set[CategorySeasonal] = queries
		}
	}
}

// validate removes malformed queries from every category and drops emptied
// categories.
func (s CategorySet) validate() {
	for cat, queries := range s {
		valid := queries[:0]
		for _, q := range queries {
			if validQuery(q) {
				valid = append(valid, q)
			}
		}
		if len(valid) == 0 {
			delete(s, cat)
			continue
		}
		s[cat] = valid
	}
}

// validQuery checks length bounds, balanced quotation, and that the query
// contains at least one letter.
func validQuery(q string) bool {
	if len(q) < minQueryLen || len(q) > maxQueryLen {
		return false
	}
	if strings.Count(q, `"`)%2 != 0 {
		return false
	}
	for _, r := range q {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// minimalFallback builds the last-resort single-query set from the first
// keyword, raw if nothing normalizes.
func (g *Generator) minimalFallback(keywords []string) CategorySet {
	kw := "guest post"
	for _, k := range keywords {
		trimmed := strings.TrimSpace(g.lower.String(k))
		if trimmed != "" {
			kw = trimmed
			break
		}
	}
	q := fmt.Sprintf(`"write for us" %s`, kw)
	if !validQuery(q) {
		q = `"write for us" guest post`
	}
	return CategorySet{CategoryPrimary: []string{q}}
}
