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
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veracitylab/veracity/pkg/validation"
)

func runCheck(cmd *cobra.Command, args []string) {
	service, extractor, _, err := buildService(false)
	if err != nil {
		log.Fatalf("failed to build verification service: %v", err)
	}

	ctx := context.Background()
	text := strings.Join(args, " ")

	var claims []string
	if extractFirst {
		extracted, err := extractor.Extract(ctx, text)
		if err != nil {
			log.Fatalf("claim extraction failed: %v", err)
		}
		if len(extracted) == 0 {
			fmt.Println("No verifiable claims found.")
			return
		}
		for _, claim := range extracted {
			claims = append(claims, claim.Text)
		}
	} else {
		claim, err := validation.SanitizeClaim(text)
		if err != nil {
			log.Fatalf("invalid claim: %v", err)
		}
		claims = []string{claim}
	}

	for _, claim := range claims {
		result := service.VerifyClaim(ctx, claim)
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
		fmt.Println(string(out))
	}
}
