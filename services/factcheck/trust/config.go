// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trust

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RulesFile is the optional YAML override for the built-in source lists:
//
//	trusted_sources:
//	  - reuters
//	  - my local fact desk
//	unreliable_sources:
//	  - some satire site
type RulesFile struct {
	TrustedSources    []string `yaml:"trusted_sources"`
	UnreliableSources []string `yaml:"unreliable_sources"`
}

// LoadRulesFile replaces the built-in source lists with the file's
// non-empty lists. Entries are lower-cased; matching stays substring.
// Call during startup, before any evaluation runs; the lists are not
// synchronized afterwards.
func LoadRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read trust rules file: %w", err)
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("failed to parse trust rules file: %w", err)
	}

	if len(rules.TrustedSources) > 0 {
		trustedSources = lowerAll(rules.TrustedSources)
		slog.Info("Trusted source list overridden", "path", path, "entries", len(trustedSources))
	}
	if len(rules.UnreliableSources) > 0 {
		unreliableSources = lowerAll(rules.UnreliableSources)
		slog.Info("Unreliable source list overridden", "path", path, "entries", len(unreliableSources))
	}
	return nil
}

func lowerAll(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
