// Package analyzer scores surviving search results and decides which are
// genuine outreach opportunities.
package analyzer

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/process"
)

// Tuning constants for the sub-scores. All are calibration knobs, not
// correctness requirements.
const (
	titleMatchBonus = 0.20

	confidenceHighThreshold   = 0.6
	confidenceMediumThreshold = 0.3
)

var (
	highAuthorityTLDs = []string{".edu", ".gov", ".org", ".mil"}

	// Academic and government country-code suffixes.
	academicCCSuffixes = []string{".ac.uk", ".edu.au", ".gov.uk", ".ac.jp", ".edu.sg", ".gc.ca"}

	freeBlogHosts = []string{
		"blogspot.com", "wordpress.com", "medium.com", "wixsite.com",
		"weebly.com", "tumblr.com", "livejournal.com",
	}

	professionalVocab = []string{
		"strategy", "industry", "research", "analysis", "insights",
		"professional", "expert", "case study", "best practices", "framework",
	}

	promotionalPhrases = []string{
		"buy now", "limited time offer", "discount code", "click here",
		"100% free", "casino", "payday loan", "miracle cure",
	}
)

// SignalChecker is the optional LLM collaborator consulted when programmatic
// signals are weak but the content is long enough to be worth a second look.
type SignalChecker interface {
	HasGuestPostSignal(ctx context.Context, title, content string) (bool, error)
}

// Analyzer computes opportunity sub-scores and the accept/reject decision.
type Analyzer struct {
	cfg config.AnalyzerConfig
	llm SignalChecker
}

// New creates an Analyzer. llm may be nil; the LLM check is an enhancement,
// not required for correctness.
func New(cfg config.AnalyzerConfig, llm SignalChecker) *Analyzer {
	if cfg.MinRelevance == 0 {
		cfg.MinRelevance = 0.3
	}
	if cfg.MinQuality == 0 {
		cfg.MinQuality = 0.4
	}
	if cfg.MaxSpamRisk == 0 {
		cfg.MaxSpamRisk = 0.6
	}
	if cfg.LLMAssistChars == 0 {
		cfg.LLMAssistChars = 600
	}
	return &Analyzer{cfg: cfg, llm: llm}
}

// Analyze produces an immutable OpportunityCandidate from a search result.
// It never fails on content; the only error source is candidate validation.
func (a *Analyzer) Analyze(ctx context.Context, r model.SearchResult, keywords []string) (model.OpportunityCandidate, error) {
	relevance := relevanceScore(r, keywords)
	quality := contentQualityScore(r)
	authority := authorityScore(r)
	spamRisk := spamRiskScore(r)

	signals := detectSignals(r.Title, r.Snippet)
	if !signals.Any() && a.llm != nil && len(r.Snippet) >= a.cfg.LLMAssistChars {
		confirmed, err := a.llm.HasGuestPostSignal(ctx, r.Title, r.Snippet)
		if err != nil {
			zap.L().Debug("analyzer: llm signal check failed",
				zap.String("url", r.URL),
				zap.Error(err),
			)
		} else if confirmed {
			signals.LLM = true
		}
	}

	isOpportunity := signals.Any() &&
		relevance >= a.cfg.MinRelevance &&
		quality >= a.cfg.MinQuality &&
		spamRisk <= a.cfg.MaxSpamRisk

	conf := model.ConfidenceLow
	switch w := signals.Weight(); {
	case w > confidenceHighThreshold:
		conf = model.ConfidenceHigh
	case w > confidenceMediumThreshold:
		conf = model.ConfidenceMedium
	}

	return model.NewOpportunityCandidate(r, relevance, quality, authority, spamRisk, conf, isOpportunity)
}

// relevanceScore is the fraction of the user's keywords present anywhere in
// the page, plus a fixed bonus per keyword found in the title, capped at 1.
func relevanceScore(r model.SearchResult, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	title := strings.ToLower(r.Title)
	text := title + " " + strings.ToLower(r.Snippet)

	matched := 0
	titleMatches := 0
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			matched++
		}
		if strings.Contains(title, k) {
			titleMatches++
		}
	}

	score := float64(matched)/float64(len(keywords)) + float64(titleMatches)*titleMatchBonus
	return clamp01(score)
}

// contentQualityScore blends content length, title length, structure, and
// professional vocabulary density.
func contentQualityScore(r model.SearchResult) float64 {
	score := 0.0

	switch n := len(r.Snippet); {
	case n > 1000:
		score += 0.40
	case n > 500:
		score += 0.30
	case n > 200:
		score += 0.20
	case n > 50:
		score += 0.10
	}

	if n := len(r.Title); n >= 10 && n <= 70 {
		score += 0.20
	}

	if hasStructure(r.Snippet) {
		score += 0.20
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)
	vocabHits := 0
	for _, term := range professionalVocab {
		if strings.Contains(text, term) {
			vocabHits++
		}
	}
	score += float64(min(vocabHits, 4)) * 0.05

	return clamp01(score)
}

// hasStructure looks for markers of organized content: headings, lists, or
// multiple paragraphs.
func hasStructure(content string) bool {
	if strings.Contains(content, "\n\n") {
		return true
	}
	for _, marker := range []string{"<h1", "<h2", "<h3", "<ul", "<ol", "<p>", "\n- ", "\n* ", "\n1."} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// authorityScore starts at the 0.5 midpoint and adjusts for domain signals.
func authorityScore(r model.SearchResult) float64 {
	score := 0.5
	host := process.Domain(r.URL)

	for _, tld := range highAuthorityTLDs {
		if strings.HasSuffix(host, tld) {
			score += 0.30
			break
		}
	}
	for _, suffix := range academicCCSuffixes {
		if strings.HasSuffix(host, suffix) {
			score += 0.20
			break
		}
	}
	if isFreeBlogHost(host) {
		score -= 0.20
	}

	return clamp01(score)
}

// spamRiskScore accumulates penalties for spam markers.
func spamRiskScore(r model.SearchResult) float64 {
	risk := 0.0
	host := process.Domain(r.URL)

	if isFreeBlogHost(host) {
		risk += 0.30
	}

	slug := urlSlug(r.URL)
	if strings.Count(slug, "-") > 4 {
		risk += 0.20
	}
	if digitCount(slug) > 4 {
		risk += 0.10
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)
	promoHits := 0
	for _, p := range promotionalPhrases {
		if strings.Contains(text, p) {
			promoHits++
		}
	}
	risk += float64(min(promoHits, 3)) * 0.15

	if len(r.Snippet) < 50 {
		risk += 0.20
	}

	return clamp01(risk)
}

func isFreeBlogHost(host string) bool {
	for _, h := range freeBlogHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// urlSlug returns the path portion of a URL after the host.
func urlSlug(raw string) string {
	u := raw
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return ""
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
