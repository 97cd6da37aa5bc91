// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject decodes the outermost JSON object embedded in text into v.
// Models often wrap JSON in prose or markdown fences; everything before the
// first '{' and after the last '}' is ignored.
func ExtractObject(text string, v any) error {
	return extract(text, '{', '}', v)
}

// ExtractArray decodes the outermost JSON array embedded in text into v.
func ExtractArray(text string, v any) error {
	return extract(text, '[', ']', v)
}

func extract(text string, open, close byte, v any) error {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON %c%c found in response", open, close)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("parsing JSON in response: %w", err)
	}
	return nil
}
