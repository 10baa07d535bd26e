package trends

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/serper"
)

// SerperProvider derives rising-query signals from Google related searches.
// It is a cheap approximation of a dedicated trends API: related searches
// for a keyword reflect what people are querying around it right now.
type SerperProvider struct {
	client serper.Client
}

// NewSerperProvider creates a Provider backed by the Serper SERP API.
func NewSerperProvider(client serper.Client) *SerperProvider {
	return &SerperProvider{client: client}
}

// Analyze fetches related searches for each keyword. Per-keyword failures
// are logged and skipped; an empty Signals is a valid outcome.
func (p *SerperProvider) Analyze(ctx context.Context, keywords []string) (*Signals, error) {
	sig := &Signals{}
	seen := make(map[string]struct{})

	for _, kw := range keywords {
		resp, err := p.client.Search(ctx, serper.SearchRequest{Q: kw, Num: 5})
		if err != nil {
			zap.L().Debug("trends: related-search lookup failed",
				zap.String("keyword", kw),
				zap.Error(err),
			)
			continue
		}
		for _, rel := range resp.RelatedSearches {
			q := strings.ToLower(strings.TrimSpace(rel.Query))
			if q == "" || q == strings.ToLower(kw) {
				continue
			}
			if _, dup := seen[q]; dup {
				continue
			}
			seen[q] = struct{}{}
			sig.RisingQueries = append(sig.RisingQueries, q)
		}
	}

	return sig, nil
}
