// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veracitylab/veracity/services/factcheck"
	"github.com/veracitylab/veracity/services/factcheck/handlers"
	"github.com/veracitylab/veracity/services/factcheck/knowledge"
)

func SetupRoutes(router *gin.Engine, service *factcheck.Service,
	extractor *factcheck.ClaimExtractor, store knowledge.Store) {

	router.GET("/health", handlers.HealthCheck(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/verify", handlers.HandleVerify(service))
		v1.POST("/claims/extract", handlers.HandleExtractClaims(extractor))
		v1.POST("/knowledge/ingest", handlers.HandleIngest(store))
	}
}
