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
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

const serpAPIBaseURL = "https://serpapi.com/search.json"

// serpAPIResponse mirrors the slice of the SerpAPI payload we consume.
type serpAPIResponse struct {
	Error       string          `json:"error"`
	NewsResults []serpAPIResult `json:"news_results"`
}

type serpAPIResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Date    string `json:"date"`
}

// SerpAPIProvider searches Google News through SerpAPI.
type SerpAPIProvider struct {
	httpClient *http.Client
	apiKey     string
	engine     string
	baseURL    string
}

// NewSerpAPIProvider builds the adapter. The API key is required; engine
// defaults to "google".
func NewSerpAPIProvider(apiKey, engine string) (*SerpAPIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SerpAPI key is missing")
	}
	if engine == "" {
		engine = "google"
	}
	return &SerpAPIProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		engine:     engine,
		baseURL:    serpAPIBaseURL,
	}, nil
}

// Name implements the Provider interface
func (p *SerpAPIProvider) Name() string { return "google_news" }

// Search implements the Provider interface
func (p *SerpAPIProvider) Search(ctx context.Context, query string, opts Options) ([]datatypes.EvidenceCandidate, error) {
	params := url.Values{}
	params.Set("engine", p.engine)
	params.Set("q", query)
	params.Set("api_key", p.apiKey)
	params.Set("tbm", "nws") // news vertical
	if opts.Limit > 0 {
		params.Set("num", strconv.Itoa(opts.Limit))
	}
	if opts.RecencyWindow != "" {
		params.Set("tbs", "qdr:"+opts.RecencyWindow)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse serpapi response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", parsed.Error)
	}

	now := time.Now()
	candidates := make([]datatypes.EvidenceCandidate, 0, len(parsed.NewsResults))
	for _, r := range parsed.NewsResults {
		source := r.Source
		if source == "" {
			source = "Unknown"
		}
		candidates = append(candidates, datatypes.EvidenceCandidate{
			Title:          r.Title,
			Snippet:        r.Snippet,
			SourceName:     source,
			URL:            r.Link,
			PublishedAt:    parseNewsDate(r.Date, now),
			ProviderOrigin: p.Name(),
		})
	}

	slog.Info("SerpAPI news search completed", "query", query, "results", len(candidates))
	return candidates, nil
}

// parseNewsDate handles the absolute timestamp formats news backends emit.
// Relative strings like "3 days ago" don't parse and fall back to the
// retrieval time.
func parseNewsDate(raw string, fallback time.Time) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"Jan 2, 2006",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}
