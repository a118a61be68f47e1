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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

// fakeProvider is a scripted Provider for aggregator tests.
type fakeProvider struct {
	name       string
	candidates []datatypes.EvidenceCandidate
	err        error
	delay      time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, opts Options) ([]datatypes.EvidenceCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func candidatesFrom(origin string, n int) []datatypes.EvidenceCandidate {
	out := make([]datatypes.EvidenceCandidate, n)
	for i := range out {
		out[i] = datatypes.EvidenceCandidate{
			Title:          fmt.Sprintf("%s result %d", origin, i),
			Snippet:        "snippet",
			SourceName:     origin,
			URL:            fmt.Sprintf("https://%s.example.com/%d", origin, i),
			ProviderOrigin: origin,
		}
	}
	return out
}

func TestNewAggregator_RequiresProviders(t *testing.T) {
	_, err := NewAggregator(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search providers")
}

func TestAggregator_MergesInRegistrationOrder(t *testing.T) {
	// The slow first provider must still appear first in the merged output.
	first := &fakeProvider{name: "alpha", candidates: candidatesFrom("alpha", 2), delay: 50 * time.Millisecond}
	second := &fakeProvider{name: "beta", candidates: candidatesFrom("beta", 2)}

	agg, err := NewAggregator([]Provider{first, second})
	require.NoError(t, err)

	results, err := agg.Search(context.Background(), "merged order claim", Options{Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "alpha", results[0].ProviderOrigin)
	assert.Equal(t, "alpha", results[1].ProviderOrigin)
	assert.Equal(t, "beta", results[2].ProviderOrigin)
	assert.Equal(t, "beta", results[3].ProviderOrigin)
}

func TestAggregator_PartialFailureKeepsSurvivors(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: fmt.Errorf("upstream 500")}
	healthy := &fakeProvider{name: "healthy", candidates: candidatesFrom("healthy", 3)}

	var failedMu sync.Mutex
	var failed []string
	agg, err := NewAggregator(
		[]Provider{broken, healthy},
		WithFailureHook(func(provider string) {
			failedMu.Lock()
			failed = append(failed, provider)
			failedMu.Unlock()
		}),
	)
	require.NoError(t, err)

	results, err := agg.Search(context.Background(), "partial failure claim", Options{Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, c := range results {
		assert.Equal(t, "healthy", c.ProviderOrigin)
	}
	assert.Equal(t, []string{"broken"}, failed)
	assert.Equal(t, 1, broken.calls)
}

func TestAggregator_AllProvidersFailing(t *testing.T) {
	// Total provider failure is not a transport error: the aggregator
	// returns an empty set and lets the caller decide what that means.
	a := &fakeProvider{name: "a", err: fmt.Errorf("timeout")}
	b := &fakeProvider{name: "b", err: fmt.Errorf("bad gateway")}

	agg, err := NewAggregator([]Provider{a, b})
	require.NoError(t, err)

	results, err := agg.Search(context.Background(), "doomed claim", Options{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAggregator_TruncatesToCap(t *testing.T) {
	big := &fakeProvider{name: "big", candidates: candidatesFrom("big", 4)}
	also := &fakeProvider{name: "also", candidates: candidatesFrom("also", 4)}

	agg, err := NewAggregator([]Provider{big, also})
	require.NoError(t, err)

	results, err := agg.Search(context.Background(), "prolific claim", Options{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, DefaultResultCap)
	// Truncation happens after ordered merge, so the overflow comes out
	// of the later provider's share.
	assert.Equal(t, "big", results[0].ProviderOrigin)
	assert.Equal(t, "also", results[4].ProviderOrigin)
}

func TestAggregator_CustomCap(t *testing.T) {
	p := &fakeProvider{name: "solo", candidates: candidatesFrom("solo", 4)}

	agg, err := NewAggregator([]Provider{p}, WithResultCap(2))
	require.NoError(t, err)

	results, err := agg.Search(context.Background(), "capped claim", Options{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAggregator_Providers(t *testing.T) {
	agg, err := NewAggregator([]Provider{
		&fakeProvider{name: "one"},
		&fakeProvider{name: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, agg.Providers())
}
