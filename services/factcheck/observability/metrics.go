// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the verification
// pipeline.
//
// Metrics cover verification outcomes, per-stage latency, search provider
// failures, and in-flight verifications. All operations are thread-safe via
// Prometheus's internal locking. Exposed at /metrics via promhttp.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "veracity"

const pipelineSubsystem = "pipeline"

// Pipeline stage label values.
const (
	StageSearch    = "search"
	StageVerify    = "verify"
	StageKnowledge = "knowledge"
	StageSynthesis = "synthesis"
)

// PipelineMetrics holds all Prometheus metrics for claim verification.
// Initialize once at startup via InitMetrics().
type PipelineMetrics struct {
	// VerificationsTotal counts completed verifications.
	// Labels: verdict (TRUE, FALSE, PARTIALLY TRUE, UNVERIFIED)
	VerificationsTotal *prometheus.CounterVec

	// ProviderFailuresTotal counts search provider failures.
	// Labels: provider (google_news, tavily, rapidapi)
	ProviderFailuresTotal *prometheus.CounterVec

	// StageDurationSeconds measures per-stage pipeline latency.
	// Labels: stage (search, verify, knowledge, synthesis)
	StageDurationSeconds *prometheus.HistogramVec

	// VerificationDurationSeconds measures end-to-end verification latency.
	VerificationDurationSeconds prometheus.Histogram

	// ActiveVerifications tracks verifications currently in flight.
	ActiveVerifications prometheus.Gauge

	// EvidenceIncludedTotal counts evidence candidates by gate outcome.
	// Labels: decision (included, excluded)
	EvidenceIncludedTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics creates and registers all pipeline metrics. Call once at
// application startup; a second call panics on duplicate registration.
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		VerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "verifications_total",
				Help:      "Total completed claim verifications by verdict",
			},
			[]string{"verdict"},
		),

		ProviderFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "provider_failures_total",
				Help:      "Total search provider failures by provider",
			},
			[]string{"provider"},
		),

		StageDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"stage"},
		),

		VerificationDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "verification_duration_seconds",
				Help:      "End-to-end claim verification duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		ActiveVerifications: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "active_verifications",
				Help:      "Number of claim verifications currently in flight",
			},
		),

		EvidenceIncludedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "evidence_total",
				Help:      "Evidence candidates by inclusion gate outcome",
			},
			[]string{"decision"},
		),
	}
	return DefaultMetrics
}

// ObserveVerification records one completed verification.
func (m *PipelineMetrics) ObserveVerification(verdict string, seconds float64) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(verdict).Inc()
	m.VerificationDurationSeconds.Observe(seconds)
}

// ObserveStage records one pipeline stage duration.
func (m *PipelineMetrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(seconds)
}

// IncProviderFailure records one search provider failure.
func (m *PipelineMetrics) IncProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.ProviderFailuresTotal.WithLabelValues(provider).Inc()
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement for deferring.
func (m *PipelineMetrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveVerifications.Inc()
	return func() { m.ActiveVerifications.Dec() }
}

// ObserveEvidence records one inclusion gate outcome.
func (m *PipelineMetrics) ObserveEvidence(included bool) {
	if m == nil {
		return
	}
	decision := "excluded"
	if included {
		decision = "included"
	}
	m.EvidenceIncludedTotal.WithLabelValues(decision).Inc()
}
