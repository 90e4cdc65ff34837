package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// ParseResponse pulls a JSON object out of free-form model output. It tries
// the whole text, then the span from the first '{' to the last '}', then the
// first '{' from which a complete object decodes.
func ParseResponse(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)

	if m, ok := decodeObject(s); ok {
		return m, nil
	}

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		if m, ok := decodeObject(s[start : end+1]); ok {
			return m, nil
		}
	}

	for i := start; i >= 0 && i < len(s); {
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var m map[string]any
		if err := dec.Decode(&m); err == nil && m != nil {
			return m, nil
		}
		next := strings.Index(s[i+1:], "{")
		if next < 0 {
			break
		}
		i += next + 1
	}

	return nil, common.MalformedResponseError("model output contains no JSON object: "+preview(s, 120), nil)
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
