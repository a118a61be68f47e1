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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))

		var payload tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "fact check: vaccine microchips", payload.Query)
		assert.Equal(t, "advanced", payload.SearchDepth)
		assert.True(t, payload.IncludeAnswer)
		assert.Equal(t, factCheckDomains, payload.IncludeDomains)

		fmt.Fprint(w, `{
			"answer": "No evidence supports the claim.",
			"results": [
				{
					"title": "Fact check: vaccines do not contain microchips",
					"content": "The claim has been repeatedly debunked.",
					"url": "https://www.reuters.com/fact-check/vaccines",
					"published_date": "2025-05-20T10:00:00Z",
					"score": 0.97
				}
			]
		}`)
	}))
	defer server.Close()

	provider, err := NewTavilyProvider("tvly-key")
	require.NoError(t, err)
	provider.baseURL = server.URL

	candidates, err := provider.Search(context.Background(), "vaccine microchips", Options{Limit: 3})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Fact check: vaccines do not contain microchips", c.Title)
	assert.Equal(t, "Reuters", c.SourceName)
	assert.Equal(t, "tavily", c.ProviderOrigin)
	assert.Equal(t, "No evidence supports the claim.", c.PrecomputedAnswer)
}

func TestTavilyProvider_CustomDomains(t *testing.T) {
	custom := []string{"nature.com"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, custom, payload.IncludeDomains)
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer server.Close()

	provider, err := NewTavilyProvider("tvly-key")
	require.NoError(t, err)
	provider.baseURL = server.URL

	candidates, err := provider.Search(context.Background(), "peer review", Options{IncludeDomains: custom})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestTavilyProvider_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "invalid api key"}`)
	}))
	defer server.Close()

	provider, err := NewTavilyProvider("wrong")
	require.NoError(t, err)
	provider.baseURL = server.URL

	_, err = provider.Search(context.Background(), "anything", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewTavilyProvider_RequiresKey(t *testing.T) {
	_, err := NewTavilyProvider("")
	require.Error(t, err)
}
