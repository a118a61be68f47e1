// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search contains the evidence aggregator and its provider adapters.
//
// Each adapter translates one external search backend's native response
// shape into the common EvidenceCandidate shape; the aggregator fans a
// claim out to every configured adapter concurrently and merges whatever
// comes back. A provider that errors, times out, or returns garbage
// contributes zero candidates and never aborts the others.
package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

// Options tunes a single provider search call.
type Options struct {
	// Limit is the maximum number of results the provider should return.
	Limit int
	// RecencyWindow restricts results by publication age where the backend
	// supports it (e.g. "d" for a day, "m" for a month). Best effort.
	RecencyWindow string
	// IncludeDomains restricts results to the given domains where the
	// backend supports allow-listing. Best effort.
	IncludeDomains []string
}

// Provider is the contract every search backend adapter satisfies.
//
// Implementations must be safe for concurrent use and must translate their
// own failure modes into an error return; they never panic across this
// boundary. A nil-error return with zero candidates is a valid outcome.
type Provider interface {
	// Name identifies the backend in logs, metrics, and candidate origins.
	Name() string

	// Search runs the query and returns candidates in provider order.
	Search(ctx context.Context, query string, opts Options) ([]datatypes.EvidenceCandidate, error)
}

// queryStopWords is the fixed stop-word set removed during query
// optimization. Matches are exact, after lower-casing.
var queryStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "is": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
}

// maxQueryTokens bounds how many claim tokens survive optimization, keeping
// provider queries short and keyword-dense rather than verbatim natural
// language.
const maxQueryTokens = 7

// OptimizeQuery derives a compact search query from free-form claim text:
// punctuation is stripped, everything is lower-cased, stop words and tokens
// of one or two characters are dropped, and at most the first seven
// remaining tokens are kept.
func OptimizeQuery(claim string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(claim) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == ' ' || r == '\t' || r == '\n' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	kept := make([]string, 0, maxQueryTokens)
	for _, word := range strings.Fields(b.String()) {
		if len(word) <= 2 || queryStopWords[word] {
			continue
		}
		kept = append(kept, word)
		if len(kept) == maxQueryTokens {
			break
		}
	}
	return strings.Join(kept, " ")
}

// domainLabel extracts a presentable source name from a result URL:
// "https://www.reuters.com/world/..." becomes "Reuters". Falls back to
// "Unknown" when the URL does not parse.
func domainLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "Unknown"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
