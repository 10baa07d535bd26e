// Package exa provides a client for the Exa neural search API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.exa.ai"

// Client performs Exa search operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the body of an Exa search call.
type SearchRequest struct {
	Query      string   `json:"query"`
	NumResults int      `json:"numResults,omitempty"`
	Type       string   `json:"type,omitempty"`
	Contents   Contents `json:"contents"`
}

// Contents controls which page content Exa returns inline.
type Contents struct {
	Text bool `json:"text"`
}

// SearchResponse is the parsed Exa search response.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Result is a single Exa search hit.
type Result struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Exa API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	if sr.Type == "" {
		sr.Type = "neural"
	}
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, eris.Wrap(err, "exa: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "exa: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "exa: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "exa: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("exa: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "exa: unmarshal response")
	}

	return &result, nil
}
