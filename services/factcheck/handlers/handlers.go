// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers for the verification API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/veracitylab/veracity/pkg/validation"
	"github.com/veracitylab/veracity/services/factcheck"
	"github.com/veracitylab/veracity/services/factcheck/knowledge"
)

var handlerTracer = otel.Tracer("veracity/services/factcheck/handlers")

// VerifyRequest is the body for POST /v1/verify.
type VerifyRequest struct {
	Claim string `json:"claim" binding:"required"`
}

// ExtractRequest is the body for POST /v1/claims/extract.
type ExtractRequest struct {
	Text string `json:"text" binding:"required"`
}

// IngestDocument is one document in POST /v1/knowledge/ingest.
type IngestDocument struct {
	Text     string `json:"text" binding:"required"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// IngestRequest is the body for POST /v1/knowledge/ingest.
type IngestRequest struct {
	Documents []IngestDocument `json:"documents" binding:"required"`
}

// HandleVerify runs the verification pipeline for one claim.
func HandleVerify(service *factcheck.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleVerify")
		defer span.End()

		var request VerifyRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind verify request JSON", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		claim, err := validation.SanitizeClaim(request.Claim)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.SetAttributes(attribute.Int("claim.length", len(claim)))

		result := service.VerifyClaim(ctx, claim)
		c.JSON(http.StatusOK, result)
	}
}

// HandleExtractClaims extracts verifiable claims from free text.
func HandleExtractClaims(extractor *factcheck.ClaimExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleExtractClaims")
		defer span.End()

		var request ExtractRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind extract request JSON", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateText(request.Text); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims, err := extractor.Extract(ctx, request.Text)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Claim extraction failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Claim extraction is unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
	}
}

// HandleIngest adds documents to the knowledge base.
func HandleIngest(store knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleIngest")
		defer span.End()

		var request IngestRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind ingest request JSON", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if len(request.Documents) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No documents provided"})
			return
		}

		if stats := store.GetStats(ctx); !stats.Available {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Knowledge base is unavailable"})
			return
		}

		docs := make([]knowledge.Document, len(request.Documents))
		for i, d := range request.Documents {
			docs[i] = knowledge.Document{
				Text:     d.Text,
				Title:    d.Title,
				Source:   d.Source,
				URL:      d.URL,
				Category: d.Category,
			}
		}

		accepted, err := store.AddDocuments(ctx, docs)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Knowledge ingestion failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed"})
			return
		}

		span.SetAttributes(attribute.Int("ingest.accepted", accepted))
		c.JSON(http.StatusOK, gin.H{"ingested": accepted, "submitted": len(docs)})
	}
}

// HealthCheck reports service liveness and knowledge base availability.
func HealthCheck(store knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := store.GetStats(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"knowledge_base": stats,
		})
	}
}
