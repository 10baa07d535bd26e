package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/exa"
	"github.com/sells-group/outreach-cli/pkg/serper"
)

// Backend executes one query against a single search provider.
type Backend interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error)
}

// ExaBackend adapts the Exa neural search client.
type ExaBackend struct {
	client exa.Client
}

// NewExaBackend wraps an Exa client.
func NewExaBackend(client exa.Client) *ExaBackend {
	return &ExaBackend{client: client}
}

func (b *ExaBackend) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	resp, err := b.client.Search(ctx, exa.SearchRequest{
		Query:      query,
		NumResults: maxResults,
		Contents:   exa.Contents{Text: true},
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: exa query")
	}

	results := make([]model.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, model.SearchResult{
			URL:           r.URL,
			Title:         r.Title,
			Snippet:       r.Text,
			Backend:       model.BackendExa,
			OriginalQuery: query,
		})
	}
	return results, nil
}

// SerperBackend adapts the Serper SERP client.
type SerperBackend struct {
	client serper.Client
}

// NewSerperBackend wraps a Serper client.
func NewSerperBackend(client serper.Client) *SerperBackend {
	return &SerperBackend{client: client}
}

func (b *SerperBackend) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	resp, err := b.client.Search(ctx, serper.SearchRequest{
		Q:   query,
		Num: maxResults,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: serper query")
	}

	results := make([]model.SearchResult, 0, len(resp.Organic))
	for i, r := range resp.Organic {
		if i >= maxResults && maxResults > 0 {
			break
		}
		if r.Link == "" {
			continue
		}
		results = append(results, model.SearchResult{
			URL:           r.Link,
			Title:         r.Title,
			Snippet:       r.Snippet,
			Backend:       model.BackendSerper,
			OriginalQuery: query,
		})
	}
	return results, nil
}
