// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package factcheck is the claim verification pipeline: evidence fan-out,
// trust gating, knowledge retrieval, and verdict synthesis behind a single
// entry point.
package factcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
	"github.com/veracitylab/veracity/services/factcheck/knowledge"
	"github.com/veracitylab/veracity/services/factcheck/observability"
	"github.com/veracitylab/veracity/services/factcheck/search"
	"github.com/veracitylab/veracity/services/factcheck/trust"
	"github.com/veracitylab/veracity/services/llm"
)

var tracer = otel.Tracer("veracity/services/factcheck")

const (
	// verifyCandidateCap bounds how many search candidates get the full
	// two-stage trust evaluation.
	verifyCandidateCap = 5

	// knowledgeHitLimit bounds knowledge base retrieval per claim.
	knowledgeHitLimit = 3

	// combinedEvidenceCap bounds the evidence fed to synthesis. Verified
	// live evidence fills first; knowledge hits take the remaining slots.
	combinedEvidenceCap = 5

	// citationCap bounds the citations in the final result.
	citationCap = 3

	synthesisTemperature = 0.2
	synthesisMaxTokens   = 1000

	knowledgeTimeout = 10 * time.Second
	synthesisTimeout = 30 * time.Second
)

// noEvidenceExplanation is the explanation when nothing at all could be
// gathered for a claim.
const noEvidenceExplanation = "Unable to verify this claim with available information."

// systemFailureExplanation is the explanation on the terminal failure path.
const systemFailureExplanation = "Unable to verify this claim due to insufficient data or technical issues."

// evidenceItem is one piece of context fed to verdict synthesis, either a
// gate-surviving live candidate or a knowledge base hit.
type evidenceItem struct {
	Text       string
	Title      string
	URL        string
	Source     string
	TrustScore int
}

// Service is the verification pipeline. Construct once and share; all
// methods are safe for concurrent use.
type Service struct {
	aggregator *search.Aggregator
	verifier   *trust.Verifier
	store      knowledge.Store
	llmClient  llm.LLMClient
	metrics    *observability.PipelineMetrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics wires pipeline metrics into the service.
func WithMetrics(m *observability.PipelineMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	aggregator *search.Aggregator,
	verifier *trust.Verifier,
	store knowledge.Store,
	llmClient llm.LLMClient,
	opts ...ServiceOption,
) (*Service, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator is nil")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("knowledge store is nil")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	s := &Service{
		aggregator: aggregator,
		verifier:   verifier,
		store:      store,
		llmClient:  llmClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyClaim runs the full pipeline for one claim. It always returns a
// well-formed result: pipeline breakdowns surface as the UNVERIFIED
// failure shape, never as an error or panic.
func (s *Service) VerifyClaim(ctx context.Context, claimText string) datatypes.VerificationResult {
	ctx, span := tracer.Start(ctx, "Service.VerifyClaim")
	defer span.End()
	span.SetAttributes(attribute.Int("claim.length", len(claimText)))

	start := time.Now()
	defer s.metrics.TrackInFlight()()

	slog.Info("Verifying claim", "claim", claimText)

	candidates := s.gatherCandidates(ctx, claimText)
	evidence, ok := s.verifyCandidates(ctx, candidates)
	if !ok {
		result := systemFailureResult()
		s.metrics.ObserveVerification(string(result.Verdict), time.Since(start).Seconds())
		return result
	}

	evidence = append(evidence, s.gatherKnowledge(ctx, claimText)...)
	if len(evidence) > combinedEvidenceCap {
		evidence = evidence[:combinedEvidenceCap]
	}

	if len(evidence) == 0 {
		slog.Info("No usable evidence for claim", "claim", claimText)
		result := datatypes.VerificationResult{
			FactCheckVerdict: datatypes.FactCheckVerdict{
				Verdict:     datatypes.VerdictUnverified,
				Confidence:  0,
				Explanation: noEvidenceExplanation,
			},
			Sources:      []datatypes.SourceRef{},
			SourcesFound: 0,
		}
		s.metrics.ObserveVerification(string(result.Verdict), time.Since(start).Seconds())
		return result
	}

	verdict := s.generateVerdict(ctx, claimText, buildContext(evidence))

	result := datatypes.VerificationResult{
		FactCheckVerdict: verdict,
		Sources:          extractSources(evidence),
		SourcesFound:     len(evidence),
	}

	span.SetAttributes(
		attribute.String("verdict", string(result.Verdict)),
		attribute.Int("verdict.confidence", result.Confidence),
		attribute.Int("evidence.count", result.SourcesFound),
	)
	slog.Info("Claim verified",
		"claim", claimText,
		"verdict", result.Verdict,
		"confidence", result.Confidence,
		"sources_found", result.SourcesFound,
		"duration", time.Since(start))
	s.metrics.ObserveVerification(string(result.Verdict), time.Since(start).Seconds())
	return result
}

// gatherCandidates runs the provider fan-out. Failures yield zero
// candidates, not an aborted verification.
func (s *Service) gatherCandidates(ctx context.Context, claimText string) []datatypes.EvidenceCandidate {
	stageStart := time.Now()
	candidates, err := s.aggregator.Search(ctx, claimText, search.Options{Limit: verifyCandidateCap})
	s.metrics.ObserveStage(observability.StageSearch, time.Since(stageStart).Seconds())
	if err != nil {
		slog.Warn("Evidence search failed", "claim", claimText, "error", err)
		return nil
	}
	if len(candidates) > verifyCandidateCap {
		candidates = candidates[:verifyCandidateCap]
	}
	return candidates
}

// verifyCandidates runs trust evaluation for every candidate in parallel
// and keeps the ones that pass the gate, preserving candidate order. The
// second return is false only on context cancellation.
func (s *Service) verifyCandidates(ctx context.Context, candidates []datatypes.EvidenceCandidate) ([]evidenceItem, bool) {
	if len(candidates) == 0 {
		return []evidenceItem{}, true
	}

	stageStart := time.Now()
	defer func() {
		s.metrics.ObserveStage(observability.StageVerify, time.Since(stageStart).Seconds())
	}()

	verifications := make([]datatypes.EvidenceVerification, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		g.Go(func() error {
			verification, err := s.verifier.Verify(gctx, candidate)
			if err != nil {
				return err
			}
			verifications[i] = verification
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Candidate verification aborted", "error", err)
		return nil, false
	}

	evidence := make([]evidenceItem, 0, len(verifications))
	for _, v := range verifications {
		s.metrics.ObserveEvidence(v.ShouldInclude)
		if !v.ShouldInclude {
			continue
		}
		evidence = append(evidence, evidenceItem{
			Text:       v.Candidate.Text(),
			Title:      v.Candidate.Title,
			URL:        v.Candidate.URL,
			Source:     v.Candidate.SourceName,
			TrustScore: v.TrustScore,
		})
	}

	slog.Info("Candidates verified", "total", len(candidates), "included", len(evidence))
	return evidence, true
}

// gatherKnowledge retrieves background material. The knowledge base is
// optional; any failure here just means no background evidence.
func (s *Service) gatherKnowledge(ctx context.Context, claimText string) []evidenceItem {
	stageStart := time.Now()
	defer func() {
		s.metrics.ObserveStage(observability.StageKnowledge, time.Since(stageStart).Seconds())
	}()

	kctx, cancel := context.WithTimeout(ctx, knowledgeTimeout)
	defer cancel()

	hits, err := s.store.SearchSimilar(kctx, claimText, knowledgeHitLimit)
	if err != nil {
		slog.Warn("Knowledge base retrieval failed", "claim", claimText, "error", err)
		return nil
	}

	items := make([]evidenceItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, evidenceItem{
			Text:   hit.Text,
			Title:  hit.Title,
			URL:    hit.URL,
			Source: hit.Source,
		})
	}
	return items
}

// rawVerdict is the permissive decode target for the synthesis answer.
type rawVerdict struct {
	Verdict       string            `json:"verdict"`
	Explanation   string            `json:"explanation"`
	CorrectedInfo *string           `json:"correctedInfo"`
	Confidence    datatypes.FlexInt `json:"confidence"`
}

// generateVerdict asks the model for a verdict over the assembled context
// and normalizes the answer. It never fails; degraded answers become the
// UNVERIFIED default shapes.
func (s *Service) generateVerdict(ctx context.Context, claimText, evidenceContext string) datatypes.FactCheckVerdict {
	ctx, span := tracer.Start(ctx, "Service.generateVerdict")
	defer span.End()

	stageStart := time.Now()
	defer func() {
		s.metrics.ObserveStage(observability.StageSynthesis, time.Since(stageStart).Seconds())
	}()

	sctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Claim to verify: %q\n\n%s\n\nProvide your fact-check verdict in JSON format.",
		claimText, evidenceContext)

	response, err := s.llmClient.Generate(sctx, factCheckingSystemPrompt, userPrompt, llm.GenerationParams{
		Temperature: llm.Float32(synthesisTemperature),
		MaxTokens:   llm.Int(synthesisMaxTokens),
	})
	if err != nil {
		span.RecordError(err)
		slog.Error("Verdict generation failed", "claim", claimText, "error", err)
		return datatypes.FactCheckVerdict{
			Verdict:     datatypes.VerdictUnverified,
			Confidence:  0,
			Explanation: "Unable to generate a verdict at this time.",
		}
	}

	var raw rawVerdict
	if err := datatypes.ExtractJSONObject(response, &raw); err != nil {
		slog.Warn("No JSON found in verdict response", "error", err)
		return defaultVerdict()
	}
	if raw.Verdict == "" || raw.Explanation == "" {
		slog.Warn("Invalid verdict structure from model")
		return defaultVerdict()
	}

	confidence := int(raw.Confidence)
	if confidence == 0 {
		confidence = 50
	}

	verdict := datatypes.FactCheckVerdict{
		Verdict:       datatypes.NormalizeVerdict(raw.Verdict),
		Confidence:    confidence,
		Explanation:   raw.Explanation,
		CorrectedInfo: raw.CorrectedInfo,
	}
	span.SetAttributes(
		attribute.String("verdict", string(verdict.Verdict)),
		attribute.Int("verdict.confidence", verdict.Confidence),
	)
	return verdict
}

// defaultVerdict is the shape for unparseable or malformed model answers.
func defaultVerdict() datatypes.FactCheckVerdict {
	return datatypes.FactCheckVerdict{
		Verdict:     datatypes.VerdictUnverified,
		Confidence:  0,
		Explanation: noEvidenceExplanation,
	}
}

// systemFailureResult is the terminal failure shape.
func systemFailureResult() datatypes.VerificationResult {
	return datatypes.VerificationResult{
		FactCheckVerdict: datatypes.FactCheckVerdict{
			Verdict:     datatypes.VerdictUnverified,
			Confidence:  0,
			Explanation: systemFailureExplanation,
		},
		Sources:      []datatypes.SourceRef{},
		SourcesFound: 0,
	}
}

// buildContext renders the evidence into the synthesis prompt context.
func buildContext(evidence []evidenceItem) string {
	if len(evidence) == 0 {
		return "No relevant sources found in the database."
	}

	var b strings.Builder
	b.WriteString("Relevant information from trusted sources:\n\n")
	for i, item := range evidence {
		fmt.Fprintf(&b, "Source %d:\n%s\n", i+1, item.Text)
		if item.Source != "" {
			fmt.Fprintf(&b, "(Source: %s)\n", item.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// extractSources builds the citation list from evidence carrying a URL.
func extractSources(evidence []evidenceItem) []datatypes.SourceRef {
	sources := make([]datatypes.SourceRef, 0, citationCap)
	for _, item := range evidence {
		if item.URL == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Source"
		}
		source := item.Source
		if source == "" {
			source = "Unknown"
		}
		sources = append(sources, datatypes.SourceRef{Title: title, URL: item.URL, Source: source})
		if len(sources) == citationCap {
			break
		}
	}
	return sources
}
