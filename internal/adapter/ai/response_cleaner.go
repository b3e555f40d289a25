package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reFence      = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	reBold       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	reHeadingTag = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// ResponseCleaner strips markdown decoration from generated text so numbered
// items start at the beginning of a line.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// Clean removes code fences, bold markers and heading hashes.
func (rc *ResponseCleaner) Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reFence.ReplaceAllString(text, "")
	text = reBold.ReplaceAllString(text, "$1")
	text = reHeadingTag.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractJSON returns the first balanced {...} object in s, or "" when there is none.
func (rc *ResponseCleaner) ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if rc.IsValidJSON(candidate) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}

// IsValidJSON checks if a string is valid JSON.
func (rc *ResponseCleaner) IsValidJSON(s string) bool {
	return json.Valid([]byte(s))
}
