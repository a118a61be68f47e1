// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("veracity/services/factcheck/knowledge")

// Document is one piece of fact-check material to ingest.
type Document struct {
	Text     string
	Title    string
	Source   string
	URL      string
	Category string
}

// Hit is one similarity match from the knowledge base.
type Hit struct {
	Text       string
	Title      string
	Source     string
	URL        string
	Similarity float64
}

// Stats summarizes knowledge base state.
type Stats struct {
	Count     int64 `json:"count"`
	Available bool  `json:"available"`
}

// Store is the knowledge base contract the pipeline depends on.
type Store interface {
	// SearchSimilar returns up to limit documents semantically close to
	// the query. An unavailable backend yields an empty slice, not an
	// error.
	SearchSimilar(ctx context.Context, query string, limit int) ([]Hit, error)

	// AddDocuments ingests documents, returning how many were accepted.
	AddDocuments(ctx context.Context, docs []Document) (int, error)

	// GetStats reports document count and backend availability.
	GetStats(ctx context.Context) Stats
}

// WeaviateStore backs Store with a Weaviate class. The client may be nil,
// in which case the store runs in degraded mode: searches are empty and
// ingestion is skipped.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(client *weaviate.Client) *WeaviateStore {
	if client == nil {
		slog.Warn("Knowledge base running in degraded mode, no Weaviate client")
	}
	return &WeaviateStore{client: client}
}

// factSourceQueryResponse types the GraphQL Get response for FactSource.
type factSourceQueryResponse struct {
	Get struct {
		FactSource []struct {
			Content    string `json:"content"`
			Title      string `json:"title"`
			Source     string `json:"source"`
			URL        string `json:"url"`
			Additional struct {
				Certainty float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"FactSource"`
	} `json:"Get"`
}

// SearchSimilar implements Store using a nearText query.
func (s *WeaviateStore) SearchSimilar(ctx context.Context, query string, limit int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "WeaviateStore.SearchSimilar")
	defer span.End()
	span.SetAttributes(attribute.String("knowledge.query", query), attribute.Int("knowledge.limit", limit))

	if s.client == nil {
		slog.Warn("Knowledge base unavailable, returning empty results")
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "title"},
		{Name: "source"},
		{Name: "url"},
		{Name: "_additional { certainty }"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(FactSourceClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("knowledge search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("knowledge search error: %s", result.Errors[0].Message)
	}

	jsonBytes, err := json.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal weaviate response: %w", err)
	}
	var typed factSourceQueryResponse
	if err := json.Unmarshal(jsonBytes, &typed); err != nil {
		return nil, fmt.Errorf("unmarshal weaviate response: %w", err)
	}

	hits := make([]Hit, 0, len(typed.Get.FactSource))
	for _, doc := range typed.Get.FactSource {
		hits = append(hits, Hit{
			Text:       doc.Content,
			Title:      doc.Title,
			Source:     doc.Source,
			URL:        doc.URL,
			Similarity: doc.Additional.Certainty,
		})
	}

	span.SetAttributes(attribute.Int("knowledge.hits", len(hits)))
	slog.Info("Knowledge base search completed", "query", query, "hits", len(hits))
	return hits, nil
}

// AddDocuments implements Store with a batch import. Object IDs derive
// from a content hash, so re-ingesting the same material overwrites
// instead of duplicating.
func (s *WeaviateStore) AddDocuments(ctx context.Context, docs []Document) (int, error) {
	ctx, span := tracer.Start(ctx, "WeaviateStore.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("knowledge.documents", len(docs)))

	if s.client == nil {
		slog.Warn("Knowledge base unavailable, skipping document addition")
		return 0, nil
	}
	if len(docs) == 0 {
		return 0, nil
	}

	objects := make([]*models.Object, len(docs))
	now := time.Now().UnixMilli()
	for i, doc := range docs {
		hash := sha256.Sum256([]byte(doc.Text))
		docUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class: FactSourceClassName,
			ID:    strfmt.UUID(docUUID.String()),
			Properties: map[string]interface{}{
				"content":     doc.Text,
				"title":       doc.Title,
				"source":      doc.Source,
				"url":         doc.URL,
				"category":    doc.Category,
				"ingested_at": now,
			},
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to perform batch import to Weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	accepted := 0
	for _, r := range resp {
		if r.Result == nil || r.Result.Errors == nil {
			accepted++
			continue
		}
		slog.Warn("Object rejected during batch import", "id", r.ID)
	}

	slog.Info("Knowledge base ingestion completed", "submitted", len(docs), "accepted", accepted)
	return accepted, nil
}

// factSourceAggregateResponse types the GraphQL Aggregate response.
type factSourceAggregateResponse struct {
	Aggregate struct {
		FactSource []struct {
			Meta struct {
				Count int64 `json:"count"`
			} `json:"meta"`
		} `json:"FactSource"`
	} `json:"Aggregate"`
}

// GetStats implements Store. Failures report an unavailable store rather
// than an error.
func (s *WeaviateStore) GetStats(ctx context.Context) Stats {
	if s.client == nil {
		return Stats{Count: 0, Available: false}
	}

	result, err := s.client.GraphQL().Aggregate().
		WithClassName(FactSourceClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil || len(result.Errors) > 0 {
		slog.Warn("Failed to aggregate knowledge base stats", "error", err)
		return Stats{Count: 0, Available: false}
	}

	jsonBytes, err := json.Marshal(result.Data)
	if err != nil {
		return Stats{Count: 0, Available: false}
	}
	var typed factSourceAggregateResponse
	if err := json.Unmarshal(jsonBytes, &typed); err != nil {
		return Stats{Count: 0, Available: false}
	}
	if len(typed.Aggregate.FactSource) == 0 {
		return Stats{Count: 0, Available: true}
	}
	return Stats{Count: typed.Aggregate.FactSource[0].Meta.Count, Available: true}
}
