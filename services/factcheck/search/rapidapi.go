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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

// RapidAPI marketplace endpoints this adapter queries. Each speaks its own
// schema; all are normalized to EvidenceCandidate before leaving the adapter.
const (
	rapidGoogleSearchHost = "google-search74.p.rapidapi.com"
	rapidBingHost         = "bing-search-apis.p.rapidapi.com"
	rapidRealtimeNewsHost = "real-time-news-data.p.rapidapi.com"
)

type rapidGoogleResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Domain      string `json:"domain"`
	} `json:"results"`
}

type rapidBingResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Domain      string `json:"domain"`
		Date        string `json:"date"`
	} `json:"data"`
}

type rapidRealtimeResponse struct {
	Data []struct {
		Title             string `json:"title"`
		Snippet           string `json:"snippet"`
		Link              string `json:"link"`
		SourceName        string `json:"source_name"`
		PublishedDatetime string `json:"published_datetime_utc"`
	} `json:"data"`
}

// RapidAPIProvider queries several RapidAPI search products (Google search,
// Bing web, Bing news, real-time news) in parallel and merges their results.
// Sub-endpoint failures are tolerated individually: the adapter returns
// whatever subset answered, and an error only when every sub-endpoint
// failed. A shared client-side rate limiter keeps the adapter inside the
// marketplace's per-second quotas.
type RapidAPIProvider struct {
	httpClient      *http.Client
	apiKey          string
	realtimeAPIKey  string
	limiter         *rate.Limiter
	googleSearchURL string
	bingSearchURL   string
	bingNewsURL     string
	realtimeNewsURL string
}

func NewRapidAPIProvider(apiKey, realtimeAPIKey string) (*RapidAPIProvider, error) {
	if apiKey == "" && realtimeAPIKey == "" {
		return nil, fmt.Errorf("RapidAPI keys are missing")
	}
	return &RapidAPIProvider{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		apiKey:          apiKey,
		realtimeAPIKey:  realtimeAPIKey,
		limiter:         rate.NewLimiter(rate.Limit(5), 5),
		googleSearchURL: "https://" + rapidGoogleSearchHost + "/",
		bingSearchURL:   "https://" + rapidBingHost + "/api/rapid/web_search",
		bingNewsURL:     "https://" + rapidBingHost + "/api/rapid/news_search",
		realtimeNewsURL: "https://" + rapidRealtimeNewsHost + "/search",
	}, nil
}

// Name implements the Provider interface
func (p *RapidAPIProvider) Name() string { return "rapidapi" }

// Search implements the Provider interface
func (p *RapidAPIProvider) Search(ctx context.Context, query string, opts Options) ([]datatypes.EvidenceCandidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	type subSearch struct {
		name string
		run  func(context.Context, string, int) ([]datatypes.EvidenceCandidate, error)
	}
	subs := []subSearch{
		{"google_search", p.searchGoogle},
		{"bing_web", p.searchBingWeb},
		{"bing_news", p.searchBingNews},
		{"realtime_news", p.searchRealtimeNews},
	}

	results := make([][]datatypes.EvidenceCandidate, len(subs))
	errs := make([]error, len(subs))

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub subSearch) {
			defer wg.Done()
			candidates, err := sub.run(ctx, query, limit)
			if err != nil {
				slog.Warn("RapidAPI sub-search failed", "endpoint", sub.name, "error", err)
				errs[i] = err
				return
			}
			results[i] = candidates
		}(i, sub)
	}
	wg.Wait()

	var merged []datatypes.EvidenceCandidate
	failures := 0
	for i := range subs {
		if errs[i] != nil {
			failures++
			continue
		}
		merged = append(merged, results[i]...)
	}
	if failures == len(subs) {
		return nil, fmt.Errorf("all %d RapidAPI sub-searches failed, first error: %w", len(subs), errs[0])
	}

	slog.Info("RapidAPI combined search completed", "query", query, "results", len(merged), "failed_endpoints", failures)
	return merged, nil
}

func (p *RapidAPIProvider) searchGoogle(ctx context.Context, query string, limit int) ([]datatypes.EvidenceCandidate, error) {
	if p.apiKey == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("related_keywords", "false")

	body, err := p.doGet(ctx, p.googleSearchURL+"?"+params.Encode(), rapidGoogleSearchHost, p.apiKey)
	if err != nil {
		return nil, err
	}

	var parsed rapidGoogleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse google search response: %w", err)
	}

	now := time.Now()
	candidates := make([]datatypes.EvidenceCandidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		source := r.Domain
		if source == "" {
			source = domainLabel(r.URL)
		}
		candidates = append(candidates, datatypes.EvidenceCandidate{
			Title:          r.Title,
			Snippet:        r.Description,
			SourceName:     source,
			URL:            r.URL,
			PublishedAt:    now,
			ProviderOrigin: p.Name(),
		})
	}
	return candidates, nil
}

func (p *RapidAPIProvider) searchBingWeb(ctx context.Context, query string, limit int) ([]datatypes.EvidenceCandidate, error) {
	return p.searchBing(ctx, p.bingSearchURL, query, limit)
}

func (p *RapidAPIProvider) searchBingNews(ctx context.Context, query string, limit int) ([]datatypes.EvidenceCandidate, error) {
	return p.searchBing(ctx, p.bingNewsURL, query, limit)
}

func (p *RapidAPIProvider) searchBing(ctx context.Context, endpoint, query string, limit int) ([]datatypes.EvidenceCandidate, error) {
	if p.apiKey == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("keyword", query)
	params.Set("page", "0")
	params.Set("size", strconv.Itoa(limit))

	body, err := p.doGet(ctx, endpoint+"?"+params.Encode(), rapidBingHost, p.apiKey)
	if err != nil {
		return nil, err
	}

	var parsed rapidBingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse bing response: %w", err)
	}

	now := time.Now()
	candidates := make([]datatypes.EvidenceCandidate, 0, len(parsed.Data))
	for _, r := range parsed.Data {
		source := r.Domain
		if source == "" {
			source = domainLabel(r.URL)
		}
		candidates = append(candidates, datatypes.EvidenceCandidate{
			Title:          r.Title,
			Snippet:        r.Description,
			SourceName:     source,
			URL:            r.URL,
			PublishedAt:    parseNewsDate(r.Date, now),
			ProviderOrigin: p.Name(),
		})
	}
	return candidates, nil
}

func (p *RapidAPIProvider) searchRealtimeNews(ctx context.Context, query string, limit int) ([]datatypes.EvidenceCandidate, error) {
	if p.realtimeAPIKey == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("time_published", "anytime")
	params.Set("lang", "en")

	body, err := p.doGet(ctx, p.realtimeNewsURL+"?"+params.Encode(), rapidRealtimeNewsHost, p.realtimeAPIKey)
	if err != nil {
		return nil, err
	}

	var parsed rapidRealtimeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse realtime news response: %w", err)
	}

	now := time.Now()
	candidates := make([]datatypes.EvidenceCandidate, 0, len(parsed.Data))
	for _, r := range parsed.Data {
		source := r.SourceName
		if source == "" {
			source = domainLabel(r.Link)
		}
		candidates = append(candidates, datatypes.EvidenceCandidate{
			Title:          r.Title,
			Snippet:        r.Snippet,
			SourceName:     source,
			URL:            r.Link,
			PublishedAt:    parseNewsDate(r.PublishedDatetime, now),
			ProviderOrigin: p.Name(),
		})
	}
	return candidates, nil
}

// doGet performs one rate-limited GET against a RapidAPI host.
func (p *RapidAPIProvider) doGet(ctx context.Context, fullURL, host, key string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-host", host)
	req.Header.Set("x-rapidapi-key", key)

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
		return nil, fmt.Errorf("rapidapi host %s returned status %d: %s", host, resp.StatusCode, string(body))
	}
	return body, nil
}
