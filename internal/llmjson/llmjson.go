// Package llmjson parses structured output produced by the completion
// service. Models wrap JSON in markdown fences or pad it with prose, and
// sometimes return malformed JSON outright; every call site goes through this
// adapter and supplies its own fallback value on error.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Clean strips markdown code fences and surrounding prose from a model
// response, returning the JSON payload candidate.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Unmarshal cleans raw and decodes it into v.
func Unmarshal(raw string, v interface{}) error {
	cleaned := Clean(raw)
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

// ParseStringList decodes a model response expected to be a JSON array of
// strings. It tolerates a fenced array embedded in prose by slicing from the
// first '[' to the last ']'.
func ParseStringList(raw string) ([]string, error) {
	cleaned := Clean(raw)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var out []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse string list: %w", err)
	}
	return out, nil
}
