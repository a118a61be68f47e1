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

	"go.opentelemetry.io/otel/attribute"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/llm"
)

const (
	accuracyEvalTemperature = 0.2
	accuracyEvalMaxTokens   = 600
)

// AccuracyEvaluator scores evidence text for accuracy indicators:
// sensationalism, attribution, red flags. Unlike source evaluation there
// is no rule short-circuit; every piece of text goes to the model.
type AccuracyEvaluator struct {
	llmClient llm.LLMClient
}

func NewAccuracyEvaluator(llmClient llm.LLMClient) (*AccuracyEvaluator, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	return &AccuracyEvaluator{llmClient: llmClient}, nil
}

type accuracyAssessment struct {
	AccuracyScore  datatypes.FlexInt `json:"accuracyScore"`
	HasRedFlags    bool              `json:"hasRedFlags"`
	RedFlags       []string          `json:"redFlags"`
	Reasoning      string            `json:"reasoning"`
	Recommendation string            `json:"recommendation"`
}

// defaultAccuracyVerdict is the degraded verdict: a middling score with a
// review recommendation, so an unreachable model neither promotes nor
// buries the evidence.
func defaultAccuracyVerdict() datatypes.AccuracyVerdict {
	return datatypes.AccuracyVerdict{
		AccuracyScore:  neutralScore,
		HasRedFlags:    false,
		RedFlags:       []string{},
		Reasoning:      "Unable to assess accuracy",
		Recommendation: datatypes.RecommendReview,
	}
}

// Evaluate scores one piece of evidence text. Like source evaluation it
// never fails except on context cancellation; model or parse failures
// degrade to the default verdict.
func (e *AccuracyEvaluator) Evaluate(ctx context.Context, content, sourceName string) (datatypes.AccuracyVerdict, error) {
	ctx, span := tracer.Start(ctx, "AccuracyEvaluator.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("trust.source", sourceName))

	userPrompt := fmt.Sprintf(
		"Analyze this news article for accuracy indicators:\n\nSource: %s\nContent: %s\n\nProvide your assessment in JSON format.",
		sourceName, content)

	response, err := e.llmClient.Generate(ctx, articleAccuracyPrompt, userPrompt, llm.GenerationParams{
		Temperature: llm.Float32(accuracyEvalTemperature),
		MaxTokens:   llm.Int(accuracyEvalMaxTokens),
	})
	if err != nil {
		if ctx.Err() != nil {
			return datatypes.AccuracyVerdict{}, ctx.Err()
		}
		slog.Warn("Accuracy assessment model call failed", "source", sourceName, "error", err)
		return defaultAccuracyVerdict(), nil
	}

	var assessment accuracyAssessment
	if err := datatypes.ExtractJSONObject(response, &assessment); err != nil {
		slog.Warn("Accuracy assessment response unparseable", "source", sourceName, "error", err)
		return defaultAccuracyVerdict(), nil
	}

	verdict := datatypes.AccuracyVerdict{
		AccuracyScore:  int(assessment.AccuracyScore),
		HasRedFlags:    assessment.HasRedFlags,
		RedFlags:       assessment.RedFlags,
		Reasoning:      assessment.Reasoning,
		Recommendation: normalizeRecommendation(assessment.Recommendation),
	}
	if verdict.RedFlags == nil {
		verdict.RedFlags = []string{}
	}
	span.SetAttributes(
		attribute.Int("trust.accuracy_score", verdict.AccuracyScore),
		attribute.Bool("trust.has_red_flags", verdict.HasRedFlags),
	)
	slog.Info("Article accuracy assessment", "source", sourceName, "score", verdict.AccuracyScore)
	return verdict, nil
}

func normalizeRecommendation(raw string) datatypes.Recommendation {
	switch r := datatypes.Recommendation(raw); r {
	case datatypes.RecommendInclude, datatypes.RecommendReview, datatypes.RecommendExclude:
		return r
	default:
		return datatypes.RecommendReview
	}
}
