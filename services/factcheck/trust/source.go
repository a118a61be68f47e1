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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/llm"
)

var tracer = otel.Tracer("veracity/services/factcheck/trust")

const (
	sourceEvalTemperature = 0.2
	sourceEvalMaxTokens   = 500
)

// SourceEvaluator scores source trustworthiness. Known sources resolve
// against the static lists without touching the model; everything else
// gets a model assessment that degrades to the neutral verdict when the
// model is unreachable or answers with garbage.
type SourceEvaluator struct {
	llmClient llm.LLMClient
}

func NewSourceEvaluator(llmClient llm.LLMClient) (*SourceEvaluator, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	return &SourceEvaluator{llmClient: llmClient}, nil
}

// sourceAssessment is the permissive decode target for the model's answer.
type sourceAssessment struct {
	Trustworthy bool               `json:"trustworthy"`
	TrustScore  datatypes.FlexInt  `json:"trustScore"`
	Reasoning   string             `json:"reasoning"`
	Category    string             `json:"category"`
}

// Evaluate returns a trust verdict for the named source. sourceURL is
// optional extra context for the model. Evaluate never fails: list hits
// come back immediately, model failures come back as the neutral verdict.
// The only error returned is context cancellation.
func (e *SourceEvaluator) Evaluate(ctx context.Context, sourceName, sourceURL string) (datatypes.SourceTrustVerdict, error) {
	ctx, span := tracer.Start(ctx, "SourceEvaluator.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("trust.source", sourceName))

	if verdict, definitive := QuickSourceCheck(sourceName); definitive {
		span.SetAttributes(
			attribute.Bool("trust.quick_check", true),
			attribute.String("trust.category", string(verdict.Category)),
		)
		slog.Debug("Source resolved by quick check", "source", sourceName, "category", verdict.Category)
		return verdict, nil
	}

	if sourceURL == "" {
		sourceURL = "N/A"
	}
	userPrompt := fmt.Sprintf(
		"Assess the trustworthiness of this news source:\n\nSource Name: %s\nURL: %s\n\nProvide your assessment in JSON format.",
		sourceName, sourceURL)

	response, err := e.llmClient.Generate(ctx, sourceTrustworthinessPrompt, userPrompt, llm.GenerationParams{
		Temperature: llm.Float32(sourceEvalTemperature),
		MaxTokens:   llm.Int(sourceEvalMaxTokens),
	})
	if err != nil {
		if ctx.Err() != nil {
			return datatypes.SourceTrustVerdict{}, ctx.Err()
		}
		slog.Warn("Source assessment model call failed", "source", sourceName, "error", err)
		return neutralSourceVerdict(), nil
	}

	var assessment sourceAssessment
	if err := datatypes.ExtractJSONObject(response, &assessment); err != nil {
		slog.Warn("Source assessment response unparseable", "source", sourceName, "error", err)
		return neutralSourceVerdict(), nil
	}

	verdict := datatypes.SourceTrustVerdict{
		Trustworthy: assessment.Trustworthy,
		TrustScore:  int(assessment.TrustScore),
		Reasoning:   assessment.Reasoning,
		Category:    normalizeCategory(assessment.Category),
	}
	span.SetAttributes(
		attribute.Int("trust.score", verdict.TrustScore),
		attribute.String("trust.category", string(verdict.Category)),
	)
	slog.Info("Model source assessment", "source", sourceName, "score", verdict.TrustScore, "category", verdict.Category)
	return verdict, nil
}

// normalizeCategory clamps a model-produced category string to the known
// set, defaulting to neutral.
func normalizeCategory(raw string) datatypes.SourceCategory {
	switch c := datatypes.SourceCategory(raw); c {
	case datatypes.CategoryHighlyTrusted, datatypes.CategoryUnreliable, datatypes.CategoryNeutral:
		return c
	default:
		return datatypes.CategoryNeutral
	}
}
