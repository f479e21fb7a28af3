package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON parses a JSON payload out of raw model output, stripping
// markdown code-fence markers the way chat models tend to emit them.
// The result is whatever json.Unmarshal produces for the payload
// (map[string]interface{} for objects, []interface{} for arrays).
func ExtractJSON(content string) (interface{}, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	content = strings.TrimSpace(content)

	var parsed interface{}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		snippet := content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, NewError(KindParse, "model returned malformed JSON: "+snippet, err)
	}
	return parsed, nil
}

// AsObject coerces a parsed payload into an object, returning false for
// arrays, strings and other non-object payloads.
func AsObject(parsed interface{}) (map[string]interface{}, bool) {
	obj, ok := parsed.(map[string]interface{})
	return obj, ok
}
