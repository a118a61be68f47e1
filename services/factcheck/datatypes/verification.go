// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the data model shared across the fact-checking
// pipeline: claims, evidence candidates, trust verdicts, and the final
// verification result returned to callers.
//
// All types here are plain values. They carry no connections or goroutines
// and are safe to copy. A value is owned by the pipeline invocation that
// created it; nothing in this package is shared across concurrent calls.
package datatypes

import (
	"strings"
	"time"
)

// Verdict is the categorical judgment the pipeline renders on a claim.
type Verdict string

const (
	VerdictTrue          Verdict = "TRUE"
	VerdictFalse         Verdict = "FALSE"
	VerdictPartiallyTrue Verdict = "PARTIALLY TRUE"
	VerdictUnverified    Verdict = "UNVERIFIED"
)

// NormalizeVerdict upper-cases a raw model-produced verdict string and clamps
// anything outside the four known values to UNVERIFIED. Model output like
// "mostly true" therefore never leaks through as a fifth category.
func NormalizeVerdict(raw string) Verdict {
	switch v := Verdict(strings.ToUpper(strings.TrimSpace(raw))); v {
	case VerdictTrue, VerdictFalse, VerdictPartiallyTrue, VerdictUnverified:
		return v
	default:
		return VerdictUnverified
	}
}

// SourceCategory classifies how a source fared in trust evaluation.
type SourceCategory string

const (
	CategoryHighlyTrusted SourceCategory = "highly_trusted"
	CategoryUnreliable    SourceCategory = "unreliable"
	CategoryNeutral       SourceCategory = "neutral"
)

// Recommendation is the accuracy evaluator's advice for one piece of evidence.
type Recommendation string

const (
	RecommendInclude Recommendation = "include"
	RecommendReview  Recommendation = "review"
	RecommendExclude Recommendation = "exclude"
)

// Claim is the immutable input to a verification call. It has no identity
// beyond its text within a single call.
type Claim struct {
	Text string `json:"text"`
}

// ExtractedClaim is one verifiable claim pulled out of a free-text message
// by the claim extractor.
type ExtractedClaim struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// EvidenceCandidate is one piece of retrieved material under consideration
// as support or refutation for a claim. Candidates are created by provider
// adapters and are immutable once produced.
type EvidenceCandidate struct {
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	SourceName string    `json:"source_name"`
	URL        string    `json:"url"`
	// PublishedAt is best-effort; adapters default it to retrieval time when
	// the provider supplies nothing usable.
	PublishedAt time.Time `json:"published_at"`
	// ProviderOrigin names the search backend that produced this candidate.
	ProviderOrigin string `json:"provider_origin"`
	// PrecomputedAnswer carries a provider-supplied direct answer when the
	// backend offers one (Tavily's includeAnswer). Empty otherwise.
	PrecomputedAnswer string `json:"precomputed_answer,omitempty"`
}

// Text renders the candidate as the evidence text used for accuracy
// evaluation and synthesis context.
func (c EvidenceCandidate) Text() string {
	return strings.TrimSpace(c.Title + "\n\n" + c.Snippet)
}

// SourceTrustVerdict is the source trust evaluator's output for one source.
type SourceTrustVerdict struct {
	Trustworthy bool           `json:"trustworthy"`
	TrustScore  int            `json:"trustScore"`
	Reasoning   string         `json:"reasoning"`
	Category    SourceCategory `json:"category"`
}

// AccuracyVerdict is the content accuracy evaluator's output for one piece
// of evidence text.
type AccuracyVerdict struct {
	AccuracyScore  int            `json:"accuracyScore"`
	HasRedFlags    bool           `json:"hasRedFlags"`
	RedFlags       []string       `json:"redFlags"`
	Reasoning      string         `json:"reasoning"`
	Recommendation Recommendation `json:"recommendation"`
}

// EvidenceVerification composes a candidate with both evaluator verdicts,
// the fused trust score, and the inclusion decision. Built once per
// candidate inside the evidence verifier and discarded after the pipeline
// extracts the inclusion decision.
type EvidenceVerification struct {
	Candidate     EvidenceCandidate  `json:"candidate"`
	Source        SourceTrustVerdict `json:"source"`
	Accuracy      AccuracyVerdict    `json:"accuracy"`
	TrustScore    int                `json:"trustScore"`
	ShouldInclude bool               `json:"shouldInclude"`
}

// FactCheckVerdict is the synthesizer's structured judgment on a claim.
// Verdict is always one of the four Verdict constants regardless of raw
// model output casing or format.
type FactCheckVerdict struct {
	Verdict       Verdict `json:"verdict"`
	Confidence    int     `json:"confidence"`
	Explanation   string  `json:"explanation"`
	CorrectedInfo *string `json:"correctedInfo"`
}

// SourceRef is one citation in the final result.
type SourceRef struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// VerificationResult is the single entity exposed across the core boundary.
// SourcesFound counts the evidence actually fed to synthesis (at most 5);
// Sources is the citation list (at most 3).
type VerificationResult struct {
	FactCheckVerdict
	Sources      []SourceRef `json:"sources"`
	SourcesFound int         `json:"sourcesFound"`
}

// SystemFailure reports whether the result looks like the terminal
// failure shape (confidence 0 with no evidence at all) rather than a
// genuine evidence-backed UNVERIFIED. The distinction is a convention,
// not a guarantee.
func (r VerificationResult) SystemFailure() bool {
	return r.Verdict == VerdictUnverified && r.Confidence == 0 && r.SourcesFound == 0
}
