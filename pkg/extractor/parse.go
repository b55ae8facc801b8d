package extractor

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseResponse parses model output into a column mapping. Models wrap JSON
// in prose or markdown fences often enough that parsing is tolerant:
//
//  1. the whole response as JSON
//  2. a ```json fenced block anywhere in the response
//  3. a bare ``` fenced block
//  4. repaired JSON (trailing commas, single quotes, unquoted keys)
//  5. fallback: the raw text under a single "content" column
//
// It never fails; an unparseable response becomes the fallback mapping and
// schema conversion decides whether that is acceptable.
func ParseResponse(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)

	if m, ok := unmarshalObject(trimmed); ok {
		return m
	}

	candidate := trimmed
	if block, ok := fencedBlock(raw); ok {
		if m, ok := unmarshalObject(block); ok {
			return m
		}
		candidate = block
	}

	if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
		if m, ok := unmarshalObject(repaired); ok {
			return m
		}
	}

	return map[string]any{"content": []any{raw}}
}

func unmarshalObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// fencedBlock returns the contents of the first markdown code fence in s.
// ```json fences are preferred over bare ones.
func fencedBlock(s string) (string, bool) {
	for _, tag := range []string{"```json", "```"} {
		start := strings.Index(s, tag)
		if start == -1 {
			continue
		}
		rest := s[start+len(tag):]
		end := strings.Index(rest, "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(rest[:end]), true
	}
	return "", false
}

// Normalize turns a parsed mapping into equal-length columns. Scalars are
// broadcast to every row, short columns are padded with nulls. The result
// is what gets cached and handed to schema conversion.
func Normalize(data map[string]any) map[string][]any {
	out := make(map[string][]any, len(data))
	if len(data) == 0 {
		return out
	}

	maxLen := 0
	for _, v := range data {
		if arr, ok := v.([]any); ok {
			if len(arr) > maxLen {
				maxLen = len(arr)
			}
		} else if maxLen < 1 {
			maxLen = 1
		}
	}

	for name, v := range data {
		if arr, ok := v.([]any); ok {
			padded := make([]any, maxLen)
			copy(padded, arr)
			out[name] = padded
			continue
		}
		broadcast := make([]any, maxLen)
		for i := range broadcast {
			broadcast[i] = v
		}
		out[name] = broadcast
	}

	return out
}
