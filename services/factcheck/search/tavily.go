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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

const tavilyBaseURL = "https://api.tavily.com/search"

// factCheckDomains is the default allow-list applied to Tavily queries.
// These outlets do primary fact-checking work, so restricting Tavily to
// them raises the signal of its answer feature.
var factCheckDomains = []string{
	"reuters.com",
	"apnews.com",
	"factcheck.org",
	"snopes.com",
	"politifact.com",
	"bbc.com",
	"who.int",
}

type tavilyRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
}

// TavilyProvider searches the Tavily AI search API. Tavily can return a
// synthesized direct answer alongside its results; that answer is carried
// through on every candidate as PrecomputedAnswer.
type TavilyProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewTavilyProvider(apiKey string) (*TavilyProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Tavily API key is missing")
	}
	return &TavilyProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    tavilyBaseURL,
	}, nil
}

// Name implements the Provider interface
func (p *TavilyProvider) Name() string { return "tavily" }

// Search implements the Provider interface
func (p *TavilyProvider) Search(ctx context.Context, query string, opts Options) ([]datatypes.EvidenceCandidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}
	domains := opts.IncludeDomains
	if len(domains) == 0 {
		domains = factCheckDomains
	}

	payload := tavilyRequest{
		Query:          "fact check: " + query,
		SearchDepth:    "advanced",
		MaxResults:     limit,
		IncludeAnswer:  true,
		IncludeDomains: domains,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	now := time.Now()
	candidates := make([]datatypes.EvidenceCandidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidates = append(candidates, datatypes.EvidenceCandidate{
			Title:             r.Title,
			Snippet:           r.Content,
			SourceName:        domainLabel(r.URL),
			URL:               r.URL,
			PublishedAt:       parseNewsDate(r.PublishedDate, now),
			ProviderOrigin:    p.Name(),
			PrecomputedAnswer: parsed.Answer,
		})
	}

	slog.Info("Tavily search completed", "query", query, "results", len(candidates), "has_answer", parsed.Answer != "")
	return candidates, nil
}
