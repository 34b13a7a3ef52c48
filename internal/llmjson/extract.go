// Package llmjson pulls JSON payloads out of free-form model answers.
package llmjson

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrNoJSON is returned when an answer holds no JSON value
var ErrNoJSON = errors.New("no JSON found in oracle response")

const fence = "```"

// Extract returns the first JSON array or object in s. When the answer
// holds a markdown code block, the block's content is tried first, so
// prose before or after the fence does not matter.
func Extract(s string) ([]byte, error) {
	if block, ok := fencedBlock(s); ok {
		if data, err := firstValue(block); err == nil {
			return data, nil
		}
	}
	return firstValue(s)
}

// firstValue decodes the first complete array or object in s. Brackets in
// prose that do not open valid JSON are skipped; a value cut off by the end
// of the text is not.
func firstValue(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		var raw json.RawMessage
		err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw)
		if err == nil {
			return raw, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
	}
	return nil, ErrNoJSON
}

// fencedBlock returns the content of the first ``` block. The language tag
// is left in place; firstValue skips over it.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, fence)
	if start == -1 {
		return "", false
	}
	body := s[start+len(fence):]
	if end := strings.Index(body, fence); end != -1 {
		body = body[:end]
	}
	return body, true
}
