// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge is the background knowledge base: previously ingested
// fact-check material stored in Weaviate and retrieved by semantic
// similarity during verification.
//
// The knowledge base is strictly optional. Every operation degrades to an
// empty result when Weaviate is unreachable, so verification keeps working
// on live search evidence alone.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// FactSourceClassName is the Weaviate class holding ingested fact-check
// material.
const FactSourceClassName = "FactSource"

func factSourceSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       FactSourceClassName,
		Description: "Fact-checking sources and verified information.",
		Vectorizer:  "text2vec-transformers",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The fact-check text: title plus body.",
				Tokenization: "word",
			},
			{
				Name:            "title",
				DataType:        []string{"text"},
				Description:     "Title of the source article.",
				Tokenization:    "word",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Publishing organization.",
				Tokenization:    "field",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "url",
				DataType:        []string{"text"},
				Description:     "Canonical URL of the source article.",
				Tokenization:    "field",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "category",
				DataType:        []string{"text"},
				Description:     "Topic category (health, politics, science, ...).",
				Tokenization:    "field",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the document was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the FactSource class if it does not exist yet.
// Safe to call on every startup.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(FactSourceClassName).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class existence: %w", err)
	}
	if exists {
		slog.Debug("Weaviate class already exists", "class", FactSourceClassName)
		return nil
	}

	if err := client.Schema().ClassCreator().WithClass(factSourceSchema()).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", FactSourceClassName, err)
	}
	slog.Info("Created Weaviate class", "class", FactSourceClassName)
	return nil
}
