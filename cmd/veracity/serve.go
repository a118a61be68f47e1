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
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veracitylab/veracity/services/factcheck/routes"
)

func runServe(cmd *cobra.Command, args []string) {
	port := os.Getenv("VERACITY_PORT")
	if port == "" {
		port = "8080"
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	service, extractor, store, err := buildService(true)
	if err != nil {
		log.Fatalf("failed to build verification service: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("veracity-service"))
	routes.SetupRoutes(router, service, extractor, store)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
