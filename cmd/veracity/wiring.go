// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/veracitylab/veracity/services/factcheck"
	"github.com/veracitylab/veracity/services/factcheck/knowledge"
	"github.com/veracitylab/veracity/services/factcheck/observability"
	"github.com/veracitylab/veracity/services/factcheck/search"
	"github.com/veracitylab/veracity/services/factcheck/trust"
	"github.com/veracitylab/veracity/services/llm"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "veracity-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("veracity-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildLLMClient assembles the primary/fallback generative client from the
// environment. Gemini is primary when configured; the HF router covers the
// rest.
func buildLLMClient() (llm.LLMClient, error) {
	var primary, secondary llm.LLMClient

	if gemini, err := llm.NewGeminiClient(); err != nil {
		slog.Warn("Gemini client unavailable", "error", err)
	} else {
		primary = gemini
	}
	if hf, err := llm.NewHuggingFaceClient(); err != nil {
		slog.Warn("HuggingFace router client unavailable", "error", err)
	} else {
		secondary = hf
	}

	return llm.NewFailoverClient(primary, "gemini", secondary, "huggingface")
}

// buildProviders assembles every search provider the environment has keys
// for, in the fixed merge order.
func buildProviders() []search.Provider {
	var providers []search.Provider

	if key := os.Getenv("SERPAPI_KEY"); key != "" {
		provider, err := search.NewSerpAPIProvider(key, os.Getenv("SERPAPI_ENGINE"))
		if err != nil {
			slog.Warn("SerpAPI provider not configured", "error", err)
		} else {
			providers = append(providers, provider)
		}
	}
	if key := os.Getenv("RAPIDAPI_KEY"); key != "" {
		realtimeKey := os.Getenv("RAPIDAPI_REALTIME_KEY")
		if realtimeKey == "" {
			realtimeKey = key
		}
		provider, err := search.NewRapidAPIProvider(key, realtimeKey)
		if err != nil {
			slog.Warn("RapidAPI provider not configured", "error", err)
		} else {
			providers = append(providers, provider)
		}
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		provider, err := search.NewTavilyProvider(key)
		if err != nil {
			slog.Warn("Tavily provider not configured", "error", err)
		} else {
			providers = append(providers, provider)
		}
	}

	return providers
}

// buildWeaviateClient connects to Weaviate when WEAVIATE_SERVICE_URL is
// set and valid; otherwise returns nil and the knowledge base runs in
// degraded mode.
func buildWeaviateClient() *weaviate.Client {
	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Knowledge base disabled.")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Knowledge base disabled.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}

	if err := knowledge.EnsureSchema(context.Background(), client); err != nil {
		slog.Warn("Failed to ensure Weaviate schema", "error", err)
	}
	return client
}

// envInt reads an integer env var, warning and falling back on bad input.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default",
			"var", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

// buildService wires the full pipeline. withMetrics controls whether
// Prometheus metrics get registered; one-shot CLI commands skip them.
func buildService(withMetrics bool) (*factcheck.Service, *factcheck.ClaimExtractor, knowledge.Store, error) {
	if path := os.Getenv("VERACITY_TRUST_RULES_FILE"); path != "" {
		if err := trust.LoadRulesFile(path); err != nil {
			return nil, nil, nil, fmt.Errorf("trust rules: %w", err)
		}
	}

	llmClient, err := buildLLMClient()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("llm client: %w", err)
	}

	providers := buildProviders()
	var opts []search.AggregatorOption
	var metrics *observability.PipelineMetrics
	if withMetrics {
		metrics = observability.InitMetrics()
		opts = append(opts, search.WithFailureHook(metrics.IncProviderFailure))
	}
	aggregator, err := search.NewAggregator(providers, opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("search providers: %w", err)
	}
	slog.Info("Search providers configured", "providers", aggregator.Providers())

	verifier, err := trust.NewVerifier(llmClient, envInt("VERACITY_TRUST_THRESHOLD", trust.DefaultTrustThreshold))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("trust verifier: %w", err)
	}

	store := knowledge.NewWeaviateStore(buildWeaviateClient())

	var serviceOpts []factcheck.ServiceOption
	if metrics != nil {
		serviceOpts = append(serviceOpts, factcheck.WithMetrics(metrics))
	}
	service, err := factcheck.NewService(aggregator, verifier, store, llmClient, serviceOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline service: %w", err)
	}

	extractor, err := factcheck.NewClaimExtractor(llmClient, envInt("VERACITY_MAX_CLAIMS", factcheck.DefaultMaxClaims))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("claim extractor: %w", err)
	}

	return service, extractor, store, nil
}
