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
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

var tracer = otel.Tracer("veracity/services/factcheck/search")

const (
	// DefaultResultCap bounds how many candidates the aggregator returns
	// across all providers combined.
	DefaultResultCap = 5

	// providerTimeout bounds each provider's share of a fan-out. A slow
	// provider loses its slot; it never stalls the whole aggregation.
	providerTimeout = 10 * time.Second
)

// Aggregator fans a claim out to every registered search provider
// concurrently and merges whatever comes back. The fan-out is best
// effort: provider failures are logged and skipped, and an error is
// returned only when no provider is registered at all. Merged results
// preserve provider registration order, then get truncated to the cap.
type Aggregator struct {
	providers []Provider
	resultCap int
	onFailure func(provider string)
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithResultCap overrides the default combined-result cap.
func WithResultCap(cap int) AggregatorOption {
	return func(a *Aggregator) {
		if cap > 0 {
			a.resultCap = cap
		}
	}
}

// WithFailureHook installs a callback invoked once per failed provider
// per fan-out. The metrics layer uses this to count provider failures.
func WithFailureHook(fn func(provider string)) AggregatorOption {
	return func(a *Aggregator) { a.onFailure = fn }
}

func NewAggregator(providers []Provider, opts ...AggregatorOption) (*Aggregator, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no search providers registered")
	}
	a := &Aggregator{
		providers: providers,
		resultCap: DefaultResultCap,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Providers returns the names of the registered providers in order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// Search optimizes the claim into a query, fans it out to every provider,
// and returns the merged candidate list. Candidates appear in provider
// registration order regardless of which provider answered first.
func (a *Aggregator) Search(ctx context.Context, claim string, opts Options) ([]datatypes.EvidenceCandidate, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.Search")
	defer span.End()

	query := OptimizeQuery(claim)
	span.SetAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.providers", len(a.providers)),
	)

	results := make([][]datatypes.EvidenceCandidate, len(a.providers))
	ok := make([]bool, len(a.providers))
	var wg sync.WaitGroup
	for i, provider := range a.providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, providerTimeout)
			defer cancel()

			start := time.Now()
			candidates, err := provider.Search(pctx, query, opts)
			if err != nil {
				slog.Warn("Search provider failed",
					"provider", provider.Name(),
					"query", query,
					"duration", time.Since(start),
					"error", err)
				if a.onFailure != nil {
					a.onFailure(provider.Name())
				}
				return
			}
			results[i] = candidates
			ok[i] = true
		}(i, provider)
	}
	wg.Wait()

	var merged []datatypes.EvidenceCandidate
	succeeded := 0
	for i := range a.providers {
		if !ok[i] {
			continue
		}
		succeeded++
		merged = append(merged, results[i]...)
	}
	if len(merged) > a.resultCap {
		merged = merged[:a.resultCap]
	}

	span.SetAttributes(
		attribute.Int("search.providers_succeeded", succeeded),
		attribute.Int("search.results", len(merged)),
	)
	if succeeded == 0 {
		span.SetStatus(codes.Error, "all search providers failed")
	}

	slog.Info("Evidence fan-out completed",
		"query", query,
		"providers", len(a.providers),
		"succeeded", succeeded,
		"results", len(merged))
	return merged, nil
}
