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
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/llm"
)

const (
	// DefaultMaxClaims bounds how many extracted claims one message yields.
	DefaultMaxClaims = 3

	claimExtractionTemperature = 0.3
	claimExtractionMaxTokens   = 800
)

// ClaimExtractor pulls verifiable factual claims out of free text with one
// model call.
type ClaimExtractor struct {
	llmClient llm.LLMClient
	maxClaims int
}

func NewClaimExtractor(llmClient llm.LLMClient, maxClaims int) (*ClaimExtractor, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	return &ClaimExtractor{llmClient: llmClient, maxClaims: maxClaims}, nil
}

// Extract returns up to maxClaims verifiable claims found in text. A model
// answer without a parseable JSON array counts as zero claims, not an
// error; only a failed model call errors.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) ([]datatypes.ExtractedClaim, error) {
	ctx, span := tracer.Start(ctx, "ClaimExtractor.Extract")
	defer span.End()
	span.SetAttributes(attribute.Int("claims.text_length", len(text)))

	userPrompt := fmt.Sprintf("Extract all verifiable factual claims from the following message:\n\n%q", text)

	response, err := e.llmClient.Generate(ctx, claimExtractionSystemPrompt, userPrompt, llm.GenerationParams{
		Temperature: llm.Float32(claimExtractionTemperature),
		MaxTokens:   llm.Int(claimExtractionMaxTokens),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("claim extraction: %w", err)
	}

	var claims []datatypes.ExtractedClaim
	if err := datatypes.ExtractJSONArray(response, &claims); err != nil {
		slog.Warn("No JSON array found in claim extraction response", "error", err)
		return []datatypes.ExtractedClaim{}, nil
	}

	valid := make([]datatypes.ExtractedClaim, 0, len(claims))
	for _, claim := range claims {
		if strings.TrimSpace(claim.Text) == "" {
			continue
		}
		valid = append(valid, claim)
		if len(valid) == e.maxClaims {
			break
		}
	}

	span.SetAttributes(attribute.Int("claims.extracted", len(valid)))
	slog.Info("Claims extracted", "found", len(claims), "processing", len(valid))
	return valid, nil
}
