package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Success(t *testing.T) {
	t.Parallel()

	target := "https://example.com/write-for-us"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/"+url.QueryEscape(target), r.RequestURI)

		resp := ReadResponse{Code: 200, Data: ReadData{
			Title:   "Write For Us",
			URL:     target,
			Content: "# Write For Us\n\nEmail editor@example.com with your pitch.",
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Read(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "Write For Us", resp.Data.Title)
	assert.Contains(t, resp.Data.Content, "editor@example.com")
}

func TestRead_NoAuthHeaderWithoutKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(ReadResponse{Code: 200}))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.com")
	require.NoError(t, err)
}

func TestRead_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
