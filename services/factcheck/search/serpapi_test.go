// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerpAPIProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google", q.Get("engine"))
		assert.Equal(t, "moon landing hoax", q.Get("q"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "nws", q.Get("tbm"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "qdr:m", q.Get("tbs"))

		fmt.Fprint(w, `{
			"news_results": [
				{
					"title": "Moon landing claims debunked again",
					"snippet": "Historians and engineers walk through the evidence.",
					"link": "https://www.reuters.com/science/moon",
					"source": "Reuters",
					"date": "2025-06-01"
				},
				{
					"title": "No source field here",
					"snippet": "snippet",
					"link": "https://example.com/x",
					"date": "3 days ago"
				}
			]
		}`)
	}))
	defer server.Close()

	provider, err := NewSerpAPIProvider("test-key", "")
	require.NoError(t, err)
	provider.baseURL = server.URL

	before := time.Now()
	candidates, err := provider.Search(context.Background(), "moon landing hoax", Options{Limit: 5, RecencyWindow: "m"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Moon landing claims debunked again", candidates[0].Title)
	assert.Equal(t, "Reuters", candidates[0].SourceName)
	assert.Equal(t, "google_news", candidates[0].ProviderOrigin)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), candidates[0].PublishedAt)

	// Missing source name falls back; relative date falls back to retrieval time.
	assert.Equal(t, "Unknown", candidates[1].SourceName)
	assert.False(t, candidates[1].PublishedAt.Before(before))
}

func TestSerpAPIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Invalid API key"}`)
	}))
	defer server.Close()

	provider, err := NewSerpAPIProvider("bad-key", "")
	require.NoError(t, err)
	provider.baseURL = server.URL

	_, err = provider.Search(context.Background(), "anything", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSerpAPIProvider_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := NewSerpAPIProvider("test-key", "")
	require.NoError(t, err)
	provider.baseURL = server.URL

	_, err = provider.Search(context.Background(), "anything", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNewSerpAPIProvider_RequiresKey(t *testing.T) {
	_, err := NewSerpAPIProvider("", "")
	require.Error(t, err)
}
