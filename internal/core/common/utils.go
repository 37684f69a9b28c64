package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the outermost JSON object in response. Model output
// often wraps the object in markdown fences or surrounding prose.
func ExtractJSON(response string) (string, error) {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response (missing '{')")
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return "", fmt.Errorf("no JSON object found in response (missing '}')")
	}
	return s[start : end+1], nil
}

// ParseJSON cleans and unmarshals a JSON string into a type T.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
