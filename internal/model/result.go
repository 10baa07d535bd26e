// Package model defines the core data types shared across the discovery pipeline.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Backend identifies which search backend produced a result.
type Backend string

const (
	// BackendExa is the neural/semantic search backend.
	BackendExa Backend = "exa"
	// BackendSerper is the operator-aware real-time SERP backend.
	BackendSerper Backend = "serper"
)

// AllBackends returns the backends in routing-preference order.
func AllBackends() []Backend {
	return []Backend{BackendExa, BackendSerper}
}

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	return b == BackendExa || b == BackendSerper
}

// SearchResult is a single raw result returned by a search backend.
type SearchResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Snippet       string  `json:"snippet"`
	Backend       Backend `json:"backend"`
	OriginalQuery string  `json:"original_query"`
}

// NewSearchResult validates and constructs a SearchResult.
func NewSearchResult(url, title, snippet string, backend Backend, query string) (SearchResult, error) {
	if strings.TrimSpace(url) == "" {
		return SearchResult{}, eris.New("model: search result url is empty")
	}
	if !backend.Valid() {
		return SearchResult{}, eris.Errorf("model: unknown backend %q", backend)
	}
	return SearchResult{
		URL:           url,
		Title:         title,
		Snippet:       snippet,
		Backend:       backend,
		OriginalQuery: query,
	}, nil
}
