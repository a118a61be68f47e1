// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trust scores evidence before it reaches verdict synthesis.
//
// Every candidate passes through two independent evaluations: source
// trustworthiness (who published this) and content accuracy (does the
// text itself look reliable). The two scores fuse into one trust score
// that gates whether the candidate becomes evidence.
package trust

import (
	"strings"

	"github.com/veracitylab/veracity/services/factcheck/datatypes"
)

// =============================================================================
// Known-Source Rules
// =============================================================================

// trustedSources short-circuits the source evaluation for outlets with an
// established accuracy record. Matching is case-insensitive substring, so
// "Reuters Health" matches "reuters".
var trustedSources = []string{
	"reuters", "associated press", "ap news", "bbc", "who", "world health organization",
	"pib", "press information bureau", "the guardian", "the new york times",
	"washington post", "nature", "science", "the lancet", "bmj", "cdc",
	"centers for disease control", "government", "fact check", "snopes",
	"politifact", "factcheck.org", "altnews", "boom live",
}

// unreliableSources short-circuits for outlets known for misinformation
// or satire.
var unreliableSources = []string{
	"infowars", "natural news", "before it's news", "yournewswire",
	"the onion", "clickhole", "satirical", "parody",
}

const (
	trustedScore    = 95
	unreliableScore = 10
	neutralScore    = 50
)

// QuickSourceCheck matches a source name against the known trusted and
// unreliable lists. The second return is false when neither list matches
// and the caller must fall through to model evaluation. Trusted wins when
// a name would somehow match both lists.
func QuickSourceCheck(sourceName string) (datatypes.SourceTrustVerdict, bool) {
	lower := strings.ToLower(sourceName)

	for _, trusted := range trustedSources {
		if strings.Contains(lower, trusted) {
			return datatypes.SourceTrustVerdict{
				Trustworthy: true,
				TrustScore:  trustedScore,
				Reasoning:   "Source is on the list of highly trusted news organizations",
				Category:    datatypes.CategoryHighlyTrusted,
			}, true
		}
	}

	for _, unreliable := range unreliableSources {
		if strings.Contains(lower, unreliable) {
			return datatypes.SourceTrustVerdict{
				Trustworthy: false,
				TrustScore:  unreliableScore,
				Reasoning:   "Source is known for misinformation or satire",
				Category:    datatypes.CategoryUnreliable,
			}, true
		}
	}

	return datatypes.SourceTrustVerdict{}, false
}

// neutralSourceVerdict is the degraded verdict used when model evaluation
// is unavailable or unparseable.
func neutralSourceVerdict() datatypes.SourceTrustVerdict {
	return datatypes.SourceTrustVerdict{
		Trustworthy: false,
		TrustScore:  neutralScore,
		Reasoning:   "Unable to verify source trustworthiness",
		Category:    datatypes.CategoryNeutral,
	}
}
