// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package factcheck

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/factcheck/knowledge"
	"github.com/veracitylab/veracity/services/factcheck/search"
	"github.com/veracitylab/veracity/services/factcheck/trust"
	"github.com/veracitylab/veracity/services/llm"
)

// routedLLM scripts every model role the pipeline exercises, keyed off the
// system instruction each role uses.
type routedLLM struct {
	mu            sync.Mutex
	sourceResp    string
	accuracyResp  string
	verdictResp   string
	claimsResp    string
	err           error
	verdictErr    error
	verdictCalls  int
	lastVerdictIn string
}

func (r *routedLLM) Generate(ctx context.Context, system, prompt string, params llm.GenerationParams) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	switch {
	case strings.Contains(system, "source credibility"):
		return r.sourceResp, nil
	case strings.Contains(system, "accuracy indicators"):
		return r.accuracyResp, nil
	case strings.Contains(system, "identify factual claims"):
		return r.claimsResp, nil
	default:
		r.verdictCalls++
		r.lastVerdictIn = prompt
		if r.verdictErr != nil {
			return "", r.verdictErr
		}
		return r.verdictResp, nil
	}
}

func (r *routedLLM) verdictState() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.verdictCalls, r.lastVerdictIn
}

// stubProvider is a scripted search provider.
type stubProvider struct {
	name       string
	candidates []datatypes.EvidenceCandidate
	err        error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(ctx context.Context, query string, opts search.Options) ([]datatypes.EvidenceCandidate, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.candidates, nil
}

// stubStore is a scripted knowledge base.
type stubStore struct {
	hits []knowledge.Hit
	err  error
}

func (s *stubStore) SearchSimilar(ctx context.Context, query string, limit int) ([]knowledge.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > limit {
		return s.hits[:limit], nil
	}
	return s.hits, nil
}

func (s *stubStore) AddDocuments(ctx context.Context, docs []knowledge.Document) (int, error) {
	return len(docs), nil
}

func (s *stubStore) GetStats(ctx context.Context) knowledge.Stats {
	return knowledge.Stats{Count: int64(len(s.hits)), Available: true}
}

func newsCandidate(source, title, url string) datatypes.EvidenceCandidate {
	return datatypes.EvidenceCandidate{
		Title:      title,
		Snippet:    "Reported details about the claim.",
		SourceName: source,
		URL:        url,
	}
}

func newTestService(t *testing.T, providers []search.Provider, store knowledge.Store, model llm.LLMClient) *Service {
	t.Helper()
	aggregator, err := search.NewAggregator(providers)
	require.NoError(t, err)
	verifier, err := trust.NewVerifier(model, 0)
	require.NoError(t, err)
	svc, err := NewService(aggregator, verifier, store, model)
	require.NoError(t, err)
	return svc
}

const solidAccuracy = `{"accuracyScore": 65, "hasRedFlags": false, "redFlags": [], "reasoning": "well sourced", "recommendation": "include"}`

func TestVerifyClaim_TrustedEvidenceIncludedAndCited(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "FALSE", "explanation": "Multiple trusted outlets refute this.", "correctedInfo": "The actual figure is 12%.", "confidence": 90}`,
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Claim refuted by officials", "https://reuters.com/refuted"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "the figure rose 80% last year")

	assert.Equal(t, datatypes.VerdictFalse, result.Verdict)
	assert.Equal(t, 90, result.Confidence)
	require.NotNil(t, result.CorrectedInfo)
	assert.Equal(t, "The actual figure is 12%.", *result.CorrectedInfo)
	assert.Equal(t, 1, result.SourcesFound)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Claim refuted by officials", result.Sources[0].Title)
	assert.Equal(t, "https://reuters.com/refuted", result.Sources[0].URL)
	assert.Equal(t, "Reuters", result.Sources[0].Source)
	assert.False(t, result.SystemFailure())

	_, verdictPrompt := model.verdictState()
	assert.Contains(t, verdictPrompt, "Claim to verify")
	assert.Contains(t, verdictPrompt, "Source 1:")
	assert.Contains(t, verdictPrompt, "(Source: Reuters)")
}

func TestVerifyClaim_NoEvidenceShortCircuits(t *testing.T) {
	model := &routedLLM{}
	providers := []search.Provider{
		&stubProvider{name: "a", err: fmt.Errorf("timeout")},
		&stubProvider{name: "b", err: fmt.Errorf("api key rejected")},
	}
	svc := newTestService(t, providers, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "unknowable claim")

	assert.Equal(t, datatypes.VerdictUnverified, result.Verdict)
	assert.Equal(t, 0, result.Confidence)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Equal(t, 0, result.SourcesFound)
	assert.True(t, result.SystemFailure())

	verdictCalls, _ := model.verdictState()
	assert.Equal(t, 0, verdictCalls, "no evidence means no synthesis call")
}

func TestVerifyClaim_PartialProviderFailureStillVerifies(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "TRUE", "explanation": "Confirmed by coverage.", "correctedInfo": null, "confidence": 80}`,
	}
	providers := []search.Provider{
		&stubProvider{name: "broken", err: fmt.Errorf("upstream 500")},
		&stubProvider{name: "working", candidates: []datatypes.EvidenceCandidate{
			newsCandidate("BBC News", "Coverage confirms event", "https://bbc.com/event"),
		}},
	}
	svc := newTestService(t, providers, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "the event happened")

	assert.Equal(t, datatypes.VerdictTrue, result.Verdict)
	assert.Equal(t, 1, result.SourcesFound)
}

func TestVerifyClaim_GateExcludesLowTrustEvidence(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("InfoWars", "Shocking revelation", "https://infowars.example.com/shock"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "shocking revelation claim")

	// The only candidate fails the gate, leaving no evidence at all.
	assert.Equal(t, datatypes.VerdictUnverified, result.Verdict)
	assert.Equal(t, 0, result.SourcesFound)
	verdictCalls, _ := model.verdictState()
	assert.Equal(t, 0, verdictCalls)
}

func TestVerifyClaim_KnowledgeBackfillsAndCapsHold(t *testing.T) {
	candidates := make([]datatypes.EvidenceCandidate, 0, 6)
	for i := 0; i < 6; i++ {
		candidates = append(candidates, newsCandidate("Reuters",
			fmt.Sprintf("Report %d", i), fmt.Sprintf("https://reuters.com/report/%d", i)))
	}
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "TRUE", "explanation": "Broad agreement across sources.", "correctedInfo": null, "confidence": 95}`,
	}
	provider := &stubProvider{name: "news", candidates: candidates}
	store := &stubStore{hits: []knowledge.Hit{
		{Text: "Archived fact-check", Title: "Archive", Source: "Snopes", URL: "https://snopes.com/archive"},
		{Text: "Another archived item", Title: "Archive 2", Source: "PolitiFact", URL: "https://politifact.com/2"},
		{Text: "Third archived item", Title: "Archive 3", Source: "AltNews", URL: "https://altnews.in/3"},
	}}
	svc := newTestService(t, []search.Provider{provider}, store, model)

	result := svc.VerifyClaim(context.Background(), "widely reported claim")

	assert.Equal(t, 5, result.SourcesFound, "combined evidence is capped")
	assert.LessOrEqual(t, len(result.Sources), 3, "citations are capped")
}

func TestVerifyClaim_KnowledgeOnlyEvidence(t *testing.T) {
	model := &routedLLM{
		verdictResp: `{"verdict": "FALSE", "explanation": "Long-debunked claim.", "correctedInfo": "See archived fact-check.", "confidence": 85}`,
	}
	provider := &stubProvider{name: "news", err: fmt.Errorf("quota exhausted")}
	store := &stubStore{hits: []knowledge.Hit{
		{Text: "This claim was debunked in 2023.", Title: "Debunked", Source: "Snopes", URL: "https://snopes.com/debunked"},
	}}
	svc := newTestService(t, []search.Provider{provider}, store, model)

	result := svc.VerifyClaim(context.Background(), "recycled hoax claim")

	assert.Equal(t, datatypes.VerdictFalse, result.Verdict)
	assert.Equal(t, 1, result.SourcesFound)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Snopes", result.Sources[0].Source)
}

func TestVerifyClaim_ProseWrappedVerdictParses(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp: "Based on my analysis:\n```json\n" +
			`{"verdict": "partially true", "explanation": "Part of the claim holds.", "correctedInfo": null, "confidence": 70}` +
			"\n```\nHope that helps.",
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Partial confirmation", "https://reuters.com/partial"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "two-part claim")

	assert.Equal(t, datatypes.VerdictPartiallyTrue, result.Verdict)
	assert.Equal(t, 70, result.Confidence)
}

func TestVerifyClaim_MissingConfidenceDefaultsTo50(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "TRUE", "explanation": "Looks right."}`,
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Confirmation", "https://reuters.com/conf"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "claim without confidence")
	assert.Equal(t, 50, result.Confidence)
}

func TestVerifyClaim_UnrecognizedVerdictClamps(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "MOSTLY TRUE", "explanation": "Close enough.", "confidence": 75}`,
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Report", "https://reuters.com/r"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "nearly true claim")
	assert.Equal(t, datatypes.VerdictUnverified, result.Verdict)
}

func TestVerifyClaim_SynthesisFailureStillReportsEvidence(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictErr:   fmt.Errorf("model backend down"),
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Report", "https://reuters.com/r"),
	}}
	svc := newTestService(t, []search.Provider{provider}, &stubStore{}, model)

	result := svc.VerifyClaim(context.Background(), "claim with dead model")

	assert.Equal(t, datatypes.VerdictUnverified, result.Verdict)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, "Unable to generate a verdict at this time.", result.Explanation)
	assert.Equal(t, 1, result.SourcesFound, "evidence was gathered even though synthesis failed")
	assert.False(t, result.SystemFailure())
}

func TestVerifyClaim_KnowledgeFailureIsNonFatal(t *testing.T) {
	model := &routedLLM{
		accuracyResp: solidAccuracy,
		verdictResp:  `{"verdict": "TRUE", "explanation": "Confirmed.", "confidence": 80}`,
	}
	provider := &stubProvider{name: "news", candidates: []datatypes.EvidenceCandidate{
		newsCandidate("Reuters", "Report", "https://reuters.com/r"),
	}}
	store := &stubStore{err: fmt.Errorf("weaviate unreachable")}
	svc := newTestService(t, []search.Provider{provider}, store, model)

	result := svc.VerifyClaim(context.Background(), "claim with broken knowledge base")
	assert.Equal(t, datatypes.VerdictTrue, result.Verdict)
	assert.Equal(t, 1, result.SourcesFound)
}

func TestBuildContext(t *testing.T) {
	assert.Equal(t, "No relevant sources found in the database.", buildContext(nil))

	context := buildContext([]evidenceItem{
		{Text: "First evidence text", Source: "Reuters"},
		{Text: "Second evidence text"},
	})
	assert.Contains(t, context, "Relevant information from trusted sources:")
	assert.Contains(t, context, "Source 1:\nFirst evidence text\n(Source: Reuters)")
	assert.Contains(t, context, "Source 2:\nSecond evidence text")
}

func TestExtractSources(t *testing.T) {
	evidence := []evidenceItem{
		{Title: "Has URL", URL: "https://a.example.com", Source: "A"},
		{Title: "No URL", Source: "B"},
		{URL: "https://c.example.com"},
		{Title: "Third", URL: "https://d.example.com", Source: "D"},
		{Title: "Fourth", URL: "https://e.example.com", Source: "E"},
	}

	sources := extractSources(evidence)
	require.Len(t, sources, 3, "citations cap at three")
	assert.Equal(t, "Has URL", sources[0].Title)
	assert.Equal(t, "Source", sources[1].Title, "missing title falls back")
	assert.Equal(t, "Unknown", sources[1].Source)
	assert.Equal(t, "Third", sources[2].Title)
}
