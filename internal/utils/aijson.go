package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseAIJSON parses JSON out of raw LLM output. Model output is unreliable:
// it may be pure JSON, JSON wrapped in a markdown code fence, or JSON with
// surrounding prose. Exactly one layer of unwrapping is attempted; anything
// still unparseable is an error for the caller to surface, never a guess.
func ParseAIJSON(input string, target interface{}) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("empty input")
	}

	// Most common case: the model returned plain JSON.
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if fenced := unwrapCodeFence(input); fenced != "" {
		if err := json.Unmarshal([]byte(fenced), target); err == nil {
			return nil
		}
	}

	if embedded := extractBalanced(input); embedded != "" {
		if err := json.Unmarshal([]byte(embedded), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncate(input, 120))
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// unwrapCodeFence strips a single markdown code fence around the payload.
func unwrapCodeFence(input string) string {
	matches := fenceRe.FindStringSubmatch(input)
	if len(matches) < 2 {
		return ""
	}
	content := strings.TrimSpace(matches[1])
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return content
	}
	return ""
}

// extractBalanced finds the first balanced JSON object or array embedded in
// surrounding text, respecting string literals and escapes.
func extractBalanced(input string) string {
	start := strings.IndexAny(input, "{[")
	if start < 0 {
		return ""
	}
	open := rune(input[start])
	close := '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escape := false
	for i, ch := range input[start:] {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return input[start : start+i+1]
			}
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
