// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trust

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/llm"
)

// scriptedLLM routes calls by system instruction so a test can script the
// source and accuracy evaluators independently and count their calls.
type scriptedLLM struct {
	mu               sync.Mutex
	sourceResponse   string
	accuracyResponse string
	err              error
	sourceCalls      int
	accuracyCalls    int
}

func (s *scriptedLLM) Generate(ctx context.Context, system, prompt string, params llm.GenerationParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if system == sourceTrustworthinessPrompt {
		s.sourceCalls++
		return s.sourceResponse, nil
	}
	s.accuracyCalls++
	return s.accuracyResponse, nil
}

func (s *scriptedLLM) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceCalls, s.accuracyCalls
}

func accuracyJSON(score int, redFlags []string) string {
	flags := "[]"
	if len(redFlags) > 0 {
		flags = `["` + redFlags[0]
		for _, f := range redFlags[1:] {
			flags += `","` + f
		}
		flags += `"]`
	}
	return fmt.Sprintf(`{"accuracyScore": %d, "hasRedFlags": %t, "redFlags": %s, "reasoning": "test", "recommendation": "include"}`,
		score, len(redFlags) > 0, flags)
}

func TestVerifier_TrustedSourceSkipsModelSourceCheck(t *testing.T) {
	mock := &scriptedLLM{accuracyResponse: accuracyJSON(80, nil)}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Health agency confirms outbreak contained",
		Snippet:    "Officials report no new cases this week.",
		SourceName: "Reuters",
		URL:        "https://reuters.com/health/outbreak",
	})
	require.NoError(t, err)

	sourceCalls, accuracyCalls := mock.counts()
	assert.Equal(t, 0, sourceCalls, "known-trusted source must not hit the model")
	assert.Equal(t, 1, accuracyCalls)

	assert.Equal(t, 95, verification.Source.TrustScore)
	assert.Equal(t, datatypes.CategoryHighlyTrusted, verification.Source.Category)
	assert.Equal(t, 89, verification.TrustScore)
	assert.True(t, verification.ShouldInclude)
}

func TestVerifier_UnreliableSourceExcluded(t *testing.T) {
	mock := &scriptedLLM{accuracyResponse: accuracyJSON(80, nil)}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Shocking truth they don't want you to know",
		Snippet:    "Exclusive report.",
		SourceName: "InfoWars",
		URL:        "https://infowars.example.com/shocking",
	})
	require.NoError(t, err)

	sourceCalls, _ := mock.counts()
	assert.Equal(t, 0, sourceCalls)
	assert.Equal(t, 10, verification.Source.TrustScore)
	assert.Equal(t, datatypes.CategoryUnreliable, verification.Source.Category)
	assert.Equal(t, 38, verification.TrustScore)
	assert.False(t, verification.ShouldInclude)
}

func TestVerifier_ScoreAtThresholdIncluded(t *testing.T) {
	// 70*0.6 + 70*0.4 = 70, exactly at the default threshold.
	mock := &scriptedLLM{
		sourceResponse:   `{"trustworthy": true, "trustScore": 70, "reasoning": "regional paper", "category": "neutral"}`,
		accuracyResponse: accuracyJSON(70, nil),
	}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "City council approves budget",
		Snippet:    "The vote passed 7-2.",
		SourceName: "Hillsdale Courier",
	})
	require.NoError(t, err)
	assert.Equal(t, 70, verification.TrustScore)
	assert.True(t, verification.ShouldInclude, "score equal to threshold passes the gate")
}

func TestVerifier_RedFlagOverride(t *testing.T) {
	// High scores, but three red flags: the override wins.
	mock := &scriptedLLM{accuracyResponse: accuracyJSON(90, []string{"no attribution", "conspiracy framing", "doctored image"})}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Report",
		Snippet:    "Content",
		SourceName: "Reuters",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, verification.TrustScore, verifier.Threshold())
	assert.False(t, verification.ShouldInclude)
}

func TestVerifier_TwoRedFlagsStillIncluded(t *testing.T) {
	mock := &scriptedLLM{accuracyResponse: accuracyJSON(90, []string{"sensational headline", "single source"})}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Report",
		Snippet:    "Content",
		SourceName: "BBC News",
	})
	require.NoError(t, err)
	assert.True(t, verification.ShouldInclude)
}

func TestVerifier_ModelFailureDegradesToNeutral(t *testing.T) {
	mock := &scriptedLLM{err: fmt.Errorf("backend unavailable")}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Unknown outlet story",
		Snippet:    "Details inside.",
		SourceName: "Obscure Bulletin",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, verification.Source.TrustScore)
	assert.Equal(t, 50, verification.Accuracy.AccuracyScore)
	assert.Equal(t, 50, verification.TrustScore)
	assert.False(t, verification.ShouldInclude)
}

func TestVerifier_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &scriptedLLM{err: fmt.Errorf("canceled")}
	verifier, err := NewVerifier(mock, 0)
	require.NoError(t, err)

	verification, err := verifier.Verify(ctx, datatypes.EvidenceCandidate{SourceName: "Anything Gazette"})
	require.Error(t, err)
	assert.Equal(t, 0, verification.TrustScore)
	assert.False(t, verification.ShouldInclude)
}

func TestVerifier_CustomThreshold(t *testing.T) {
	mock := &scriptedLLM{accuracyResponse: accuracyJSON(80, nil)}
	verifier, err := NewVerifier(mock, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, verifier.Threshold())

	// Reuters at 95/80 fuses to 89, below the raised threshold.
	verification, err := verifier.Verify(context.Background(), datatypes.EvidenceCandidate{
		Title:      "Story",
		Snippet:    "Snippet",
		SourceName: "Reuters",
	})
	require.NoError(t, err)
	assert.Equal(t, 89, verification.TrustScore)
	assert.False(t, verification.ShouldInclude)
}
