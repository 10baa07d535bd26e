// Package process merges, deduplicates, filters, and orders raw search
// results before opportunity analysis.
package process

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// domainDenylist holds domains whose results are never outreach targets:
// social networks, e-commerce marketplaces, and generic encyclopedic sites.
var domainDenylist = map[string]struct{}{
	"facebook.com":  {},
	"twitter.com":   {},
	"x.com":         {},
	"instagram.com": {},
	"linkedin.com":  {},
	"pinterest.com": {},
	"youtube.com":   {},
	"tiktok.com":    {},
	"reddit.com":    {},
	"amazon.com":    {},
	"ebay.com":      {},
	"etsy.com":      {},
	"walmart.com":   {},
	"aliexpress.com": {},
	"wikipedia.org": {},
	"wikihow.com":   {},
	"quora.com":     {},
}

// guestPostIndicators are the cheap textual signals used both for ordering
// here and for probe-phase opportunity counting in the orchestrator.
var guestPostIndicators = []string{
	"write for us",
	"guest post",
	"guest article",
	"submit an article",
	"become a contributor",
	"submission guidelines",
	"contributor guidelines",
}

// authoritySuffixes earn a potential-score bonus.
var authoritySuffixes = []string{".edu", ".gov", ".org"}

const (
	minTitleLen   = 10
	minContentLen = 50

	indicatorBonus  = 1.0
	authorityBonus  = 0.5
	longContentLen  = 200
	longContentBonus = 0.3
)

// Process merges both backends' results, deduplicates by normalized URL
// (first occurrence wins), removes denylisted and thin results, and orders
// the remainder by descending potential score. The sort is stable, so the
// final ordering is deterministic for a fixed input set.
func Process(resultsA, resultsB []model.SearchResult) []model.SearchResult {
	merged := make([]model.SearchResult, 0, len(resultsA)+len(resultsB))
	merged = append(merged, resultsA...)
	merged = append(merged, resultsB...)

	seen := make(map[string]struct{}, len(merged))
	filtered := make([]model.SearchResult, 0, len(merged))
	for _, r := range merged {
		key := NormalizeURL(r.URL)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !passesQualityFilter(r) {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return PotentialScore(filtered[i]) > PotentialScore(filtered[j])
	})

	return filtered
}

// NormalizeURL lowercases a URL and strips the trailing slash so variants
// that differ only in case or trailing slash deduplicate to one entry.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	u = strings.TrimSuffix(u, "/")
	return u
}

// Domain extracts the lowercased registered host of a URL, without "www.".
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		// Bare domains without a scheme.
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return ""
		}
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func passesQualityFilter(r model.SearchResult) bool {
	host := Domain(r.URL)
	if host == "" {
		return false
	}
	for deny := range domainDenylist {
		if host == deny || strings.HasSuffix(host, "."+deny) {
			return false
		}
	}
	if len(r.Title) < minTitleLen && len(r.Snippet) < minContentLen {
		return false
	}
	return true
}

// PotentialScore is the cheap ordering heuristic: guest-post indicator
// presence, authoritative domain suffix, and substantive content length.
func PotentialScore(r model.SearchResult) float64 {
	score := 0.0
	if HasGuestPostIndicator(r) {
		score += indicatorBonus
	}

	host := Domain(r.URL)
	for _, suffix := range authoritySuffixes {
		if strings.HasSuffix(host, suffix) {
			score += authorityBonus
			break
		}
	}

	if len(r.Snippet) > longContentLen {
		score += longContentBonus
	}
	return score
}

// HasGuestPostIndicator reports whether the title or snippet contains any
// guest-post indicator phrase. The orchestrator uses this as its probe-phase
// quality-opportunity check.
func HasGuestPostIndicator(r model.SearchResult) bool {
	text := strings.ToLower(r.Title + " " + r.Snippet)
	for _, phrase := range guestPostIndicators {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// CountQualityOpportunities counts results carrying a guest-post indicator.
func CountQualityOpportunities(results []model.SearchResult) int {
	n := 0
	for _, r := range results {
		if HasGuestPostIndicator(r) {
			n++
		}
	}
	return n
}
