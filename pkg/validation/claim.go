// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-provided text.
//
// Claims and free text arrive over the public API and get interpolated into
// model prompts and search queries. These validators reject inputs that are
// empty, oversized, or carry control characters before any of that happens.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxClaimLength caps a single claim. Anything longer is a pasted article,
// not a claim, and belongs on the extraction endpoint.
const MaxClaimLength = 1000

// MaxTextLength caps free text submitted for claim extraction.
const MaxTextLength = 10000

// ValidateClaim validates a single claim string.
//
// Valid claims:
//   - non-empty after trimming whitespace
//   - at most MaxClaimLength characters
//   - no control characters other than whitespace
//
// Returns an error describing the first violation found.
func ValidateClaim(claim string) error {
	trimmed := strings.TrimSpace(claim)
	if trimmed == "" {
		return fmt.Errorf("claim cannot be empty")
	}
	if len(trimmed) > MaxClaimLength {
		return fmt.Errorf("claim exceeds %d characters", MaxClaimLength)
	}
	if r, ok := firstControlRune(trimmed); ok {
		return fmt.Errorf("claim contains control character %q", r)
	}
	return nil
}

// ValidateText validates free text submitted for claim extraction.
// The limit is looser than ValidateClaim since extraction input is
// expected to be whole messages or paragraphs.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if len(trimmed) > MaxTextLength {
		return fmt.Errorf("text exceeds %d characters", MaxTextLength)
	}
	return nil
}

// SanitizeClaim normalizes and validates a claim.
// Returns the trimmed claim with internal whitespace runs collapsed to a
// single space, or an error if the claim is invalid.
//
//	claim, err := validation.SanitizeClaim(userInput)
//	if err != nil {
//	    return err
//	}
//	// claim is trimmed, single-spaced, and validated
func SanitizeClaim(claim string) (string, error) {
	normalized := strings.Join(strings.Fields(claim), " ")
	if err := ValidateClaim(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// firstControlRune reports the first non-whitespace control rune, if any.
func firstControlRune(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return r, true
		}
	}
	return 0, false
}
