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
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	extractFirst bool

	rootCmd = &cobra.Command{
		Use:   "veracity",
		Short: "A claim verification service backed by live search and a knowledge base",
		Long: `Veracity verifies factual claims: it fans each claim out to news and
search providers, scores every piece of evidence for source trust and
content accuracy, retrieves background material from a Weaviate
knowledge base, and synthesizes a verdict with a generative model.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the verification HTTP service",
		Run:   runServe,
	}

	checkCmd = &cobra.Command{
		Use:   "check [claim]",
		Short: "Verify a single claim and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCheck,
	}

	ingestCmd = &cobra.Command{
		Use:   "ingest [file.json]",
		Short: "Ingest fact-check documents from a JSON file into the knowledge base",
		Args:  cobra.ExactArgs(1),
		Run:   runIngest,
	}
)

func init() {
	checkCmd.Flags().BoolVar(&extractFirst, "extract", false,
		"treat the argument as free text: extract claims first, then verify each")
	rootCmd.AddCommand(serveCmd, checkCmd, ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
