// Package contact discovers contact email addresses for accepted
// opportunities. It is consulted only for candidates that pass the
// opportunity gate.
package contact

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/process"
	"github.com/sells-group/outreach-cli/pkg/jina"
)

// Email is one discovered address with a heuristic quality score.
type Email struct {
	Email        string  `json:"email"`
	QualityScore float64 `json:"quality_score"`
}

// Result is the extractor's outcome for one page.
type Result struct {
	Emails    []Email `json:"emails"`
	BestEmail string  `json:"best_email"`
	HasEmails bool    `json:"has_emails"`
}

// Extractor finds contact emails on a page.
type Extractor interface {
	Extract(ctx context.Context, pageURL, content, title string) (*Result, error)
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Editorial mailbox prefixes, most desirable for outreach.
var editorialPrefixes = []string{
	"editor", "submissions", "submit", "write", "pitch", "content", "guestpost",
}

var genericPrefixes = []string{"info", "contact", "hello", "team", "admin", "support"}

var freeMailHosts = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"outlook.com": {},
	"hotmail.com": {},
	"aol.com":     {},
}

// PageExtractor scans provided content for emails and, when none appear,
// fetches the full page via Jina Reader for a second pass. reader may be
// nil, in which case only the supplied content is scanned.
type PageExtractor struct {
	reader jina.Client
}

// NewPageExtractor creates a PageExtractor.
func NewPageExtractor(reader jina.Client) *PageExtractor {
	return &PageExtractor{reader: reader}
}

// Extract scans content for addresses, scoring each for outreach quality.
// Extraction never fails hard: fetch errors degrade to an empty result.
func (e *PageExtractor) Extract(ctx context.Context, pageURL, content, title string) (*Result, error) {
	emails := scanEmails(pageURL, content+" "+title)

	if len(emails) == 0 && e.reader != nil {
		resp, err := e.reader.Read(ctx, pageURL)
		if err != nil {
			zap.L().Debug("contact: page fetch failed",
				zap.String("url", pageURL),
				zap.Error(err),
			)
		} else {
			emails = scanEmails(pageURL, resp.Data.Content)
		}
	}

	res := &Result{
		Emails:    emails,
		HasEmails: len(emails) > 0,
	}
	if len(emails) > 0 {
		res.BestEmail = emails[0].Email
	}
	return res, nil
}

// scanEmails extracts, deduplicates, scores, and orders addresses best-first.
func scanEmails(pageURL, text string) []Email {
	pageDomain := process.Domain(pageURL)

	seen := make(map[string]struct{})
	var emails []Email
	for _, match := range emailPattern.FindAllString(text, -1) {
		addr := strings.ToLower(strings.Trim(match, "."))
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		score := scoreEmail(addr, pageDomain)
		if score <= 0 {
			continue
		}
		emails = append(emails, Email{Email: addr, QualityScore: score})
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].QualityScore > emails[j].QualityScore
	})
	return emails
}

// scoreEmail grades an address for outreach use. Editorial mailboxes on the
// page's own domain score highest; no-reply and obviously synthetic
// addresses are discarded.
func scoreEmail(addr, pageDomain string) float64 {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return 0
	}
	local, host := addr[:at], addr[at+1:]

	if strings.HasPrefix(local, "noreply") || strings.HasPrefix(local, "no-reply") {
		return 0
	}
	// Placeholder addresses from examples and templates.
	if host == "example.com" || host == "email.com" || host == "domain.com" {
		return 0
	}

	score := 0.5
	for _, p := range editorialPrefixes {
		if strings.HasPrefix(local, p) {
			score = 0.9
			break
		}
	}
	if score < 0.9 {
		for _, p := range genericPrefixes {
			if strings.HasPrefix(local, p) {
				score = 0.6
				break
			}
		}
	}

	if pageDomain != "" && (host == pageDomain || strings.HasSuffix(host, "."+pageDomain)) {
		score += 0.1
	}
	if _, free := freeMailHosts[host]; free {
		score -= 0.2
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
