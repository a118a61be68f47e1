// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Permissive JSON Extraction
// =============================================================================

// Generative models rarely return bare JSON: the object we asked for is
// usually wrapped in prose, markdown fences, or both. The helpers here
// implement the parse-then-validate strategy used by every stage that
// consumes model output: locate the first JSON value in the raw text,
// unmarshal it into the stage's strict result type, and let the caller
// substitute its documented default on failure. Callers never receive a
// partially-populated value; they get either a decoded value or an error.

// ExtractJSONObject finds the first brace-delimited JSON object embedded in
// raw and unmarshals it into out.
//
// The scan is brace-depth aware and string-aware, so objects containing
// nested objects or braces inside string values are handled correctly.
// Leading and trailing non-JSON text is ignored.
//
// Returns an error when raw contains no complete object or the object does
// not unmarshal into out.
func ExtractJSONObject(raw string, out any) error {
	payload, err := extractDelimited(raw, '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("embedded object does not parse: %w", err)
	}
	return nil
}

// ExtractJSONArray finds the first bracket-delimited JSON array embedded in
// raw and unmarshals it into out. Same tolerance rules as ExtractJSONObject.
func ExtractJSONArray(raw string, out any) error {
	payload, err := extractDelimited(raw, '[', ']')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("embedded array does not parse: %w", err)
	}
	return nil
}

// extractDelimited returns the first balanced open..close span in raw,
// tracking JSON string literals so delimiters inside strings don't
// terminate the scan early.
func extractDelimited(raw string, open, close byte) (string, error) {
	start := strings.IndexByte(raw, open)
	if start < 0 {
		return "", fmt.Errorf("no %q found in response", string(open))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated %q in response", string(open))
}

// FlexInt decodes JSON numbers that models sometimes emit as floats or
// quoted strings ("confidence": "85") into a plain int.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler for FlexInt.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return fmt.Errorf("not a number: %s", string(data))
	}
	*f = FlexInt(v + 0.5)
	return nil
}
