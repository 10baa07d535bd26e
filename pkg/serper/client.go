// Package serper provides a client for the Serper.dev Google SERP API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://google.serper.dev"

// Client performs Serper search operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the body of a Serper search call. Google operators
// (intitle:, inurl:, quoted phrases) pass through in Q unchanged.
type SearchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

// SearchResponse is the parsed Serper response.
type SearchResponse struct {
	Organic         []OrganicResult `json:"organic"`
	RelatedSearches []RelatedSearch `json:"relatedSearches"`
}

// OrganicResult is a single organic SERP hit.
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// RelatedSearch is a query Google suggests alongside the results.
type RelatedSearch struct {
	Query string `json:"query"`
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

// NewClient creates a Serper API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("serper: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	return &result, nil
}
