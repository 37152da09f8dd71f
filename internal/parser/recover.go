package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"marksheet/internal/domain"
)

// RecoverJSON locates and decodes a single JSON object in free-form model output.
//
// Three strategies are tried in order: the whole trimmed text, the span from the
// first '{' to the last '}', and a string-aware balanced-brace scan that returns
// the first balanced span which decodes as an object. A value that decodes to
// anything other than an object is treated as a failure of that strategy.
func RecoverJSON(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	if obj, ok := decodeObject(trimmed); ok {
		return obj, nil
	}

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			if obj, ok := decodeObject(trimmed[start : end+1]); ok {
				return obj, nil
			}
		}
	}

	if obj, ok := scanBalanced(trimmed); ok {
		return obj, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrNoJSONFound, truncate(trimmed, 200))
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// scanBalanced tries each opening brace in turn as the start of an object.
// Braces inside JSON string literals are ignored, so a value like "see {x}"
// does not end a span early. A span that fails to decode, or never closes, is
// abandoned and scanning resumes just after its opening brace with fresh
// string state, so one stray quote cannot hide a later object.
func scanBalanced(s string) (map[string]any, bool) {
	for from := 0; from < len(s); {
		rel := strings.IndexByte(s[from:], '{')
		if rel < 0 {
			return nil, false
		}
		start := from + rel
		if end, ok := matchBrace(s, start); ok {
			if obj, ok := decodeObject(s[start : end+1]); ok {
				return obj, true
			}
		}
		from = start + 1
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at s[start].
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DefaultModelConfidence is used when the model omits llm_confidence.
const DefaultModelConfidence = 0.5

// FillDefaults adds any missing or null top-level record keys in place and
// returns the same map.
func FillDefaults(m map[string]any) map[string]any {
	for _, key := range []string{"student_info", "exam_info", "overall_result"} {
		if m[key] == nil {
			m[key] = map[string]any{}
		}
	}
	if m["subjects"] == nil {
		m["subjects"] = []any{}
	}
	if m["llm_confidence"] == nil {
		m["llm_confidence"] = DefaultModelConfidence
	}
	return m
}
