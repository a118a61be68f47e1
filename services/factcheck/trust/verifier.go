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
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/llm"
)

const (
	// DefaultTrustThreshold is the minimum fused score a candidate needs
	// to survive the inclusion gate.
	DefaultTrustThreshold = 70

	// Fusion weights. Who published something matters more than how the
	// snippet reads.
	sourceWeight   = 0.6
	accuracyWeight = 0.4

	// maxRedFlags is how many red flags a candidate may carry before the
	// override excludes it regardless of score.
	maxRedFlags = 2
)

// Verifier fuses source trust and content accuracy into one inclusion
// decision per candidate. The two sub-evaluations run concurrently; both
// degrade internally, so Verify only fails on context cancellation.
type Verifier struct {
	sources   *SourceEvaluator
	accuracy  *AccuracyEvaluator
	threshold int
}

func NewVerifier(llmClient llm.LLMClient, threshold int) (*Verifier, error) {
	sources, err := NewSourceEvaluator(llmClient)
	if err != nil {
		return nil, fmt.Errorf("source evaluator: %w", err)
	}
	accuracy, err := NewAccuracyEvaluator(llmClient)
	if err != nil {
		return nil, fmt.Errorf("accuracy evaluator: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultTrustThreshold
	}
	return &Verifier{sources: sources, accuracy: accuracy, threshold: threshold}, nil
}

// Threshold returns the inclusion threshold in effect.
func (v *Verifier) Threshold() int { return v.threshold }

// FuseTrustScore combines a source trust score and a content accuracy
// score into the overall candidate score. A zero sub-score means that
// evaluator never produced one and counts as neutral.
func FuseTrustScore(sourceScore, accuracyScore int) int {
	if sourceScore == 0 {
		sourceScore = neutralScore
	}
	if accuracyScore == 0 {
		accuracyScore = neutralScore
	}
	return int(math.Round(float64(sourceScore)*sourceWeight + float64(accuracyScore)*accuracyWeight))
}

// shouldInclude applies the inclusion gate: multiple red flags exclude
// unconditionally, then the score must meet the threshold. A score equal
// to the threshold passes.
func (v *Verifier) shouldInclude(trustScore int, accuracy datatypes.AccuracyVerdict) bool {
	if accuracy.HasRedFlags && len(accuracy.RedFlags) > maxRedFlags {
		slog.Info("Excluding evidence due to multiple red flags", "red_flags", len(accuracy.RedFlags))
		return false
	}
	if trustScore < v.threshold {
		slog.Info("Excluding evidence due to low trust score", "score", trustScore, "threshold", v.threshold)
		return false
	}
	return true
}

// Verify runs both evaluations for one candidate and renders the fused
// verdict. On context cancellation the returned verification carries a
// zero trust score and an exclude decision alongside the error.
func (v *Verifier) Verify(ctx context.Context, candidate datatypes.EvidenceCandidate) (datatypes.EvidenceVerification, error) {
	ctx, span := tracer.Start(ctx, "Verifier.Verify")
	defer span.End()
	span.SetAttributes(
		attribute.String("trust.source", candidate.SourceName),
		attribute.String("trust.provider", candidate.ProviderOrigin),
	)

	var (
		sourceVerdict   datatypes.SourceTrustVerdict
		accuracyVerdict datatypes.AccuracyVerdict
		sourceErr       error
		accuracyErr     error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		accuracyVerdict, accuracyErr = v.accuracy.Evaluate(ctx, candidate.Text(), candidate.SourceName)
	}()
	sourceVerdict, sourceErr = v.sources.Evaluate(ctx, candidate.SourceName, candidate.URL)
	<-done

	if sourceErr != nil || accuracyErr != nil {
		err := sourceErr
		if err == nil {
			err = accuracyErr
		}
		return datatypes.EvidenceVerification{
			Candidate:     candidate,
			TrustScore:    0,
			ShouldInclude: false,
		}, err
	}

	trustScore := FuseTrustScore(sourceVerdict.TrustScore, accuracyVerdict.AccuracyScore)
	include := v.shouldInclude(trustScore, accuracyVerdict)

	span.SetAttributes(
		attribute.Int("trust.score", trustScore),
		attribute.Bool("trust.include", include),
	)
	slog.Info("Evidence verified",
		"source", candidate.SourceName,
		"source_score", sourceVerdict.TrustScore,
		"accuracy_score", accuracyVerdict.AccuracyScore,
		"trust_score", trustScore,
		"include", include)

	return datatypes.EvidenceVerification{
		Candidate:     candidate,
		Source:        sourceVerdict,
		Accuracy:      accuracyVerdict,
		TrustScore:    trustScore,
		ShouldInclude: include,
	}, nil
}
