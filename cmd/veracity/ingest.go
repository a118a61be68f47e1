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
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veracitylab/veracity/services/factcheck/knowledge"
)

func runIngest(cmd *cobra.Command, args []string) {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("failed to read documents file: %v", err)
	}

	var docs []knowledge.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Fatalf("failed to parse documents file: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("no documents found in %s", args[0])
	}

	_, _, store, err := buildService(false)
	if err != nil {
		log.Fatalf("failed to build verification service: %v", err)
	}

	ctx := context.Background()
	stats := store.GetStats(ctx)
	if !stats.Available {
		log.Fatalf("knowledge base is unavailable; check WEAVIATE_SERVICE_URL")
	}

	accepted, err := store.AddDocuments(ctx, docs)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	slog.Info("Ingest complete", "submitted", len(docs), "accepted", accepted)
}
