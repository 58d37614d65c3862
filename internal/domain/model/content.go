package model

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// renderFallback stands in for payloads that cannot be serialized.
const renderFallback = "[unserializable data]"

// legacyContentRe matches the quoted content fragment of the historical
// wrapped-object text form, e.g. AIMessageChunk(content='...') or
// ToolMessage(content='...', name='x'). Single quotes inside the content
// arrive escaped as \'. Best-effort: the grammar is inferred from observed
// payloads, not a published format.
var legacyContentRe = regexp.MustCompile(`content='((?:\\'|[^'])*)'`)

// CoerceNumber normalizes a numeric-or-string JSON value. Only finite
// numbers are accepted; anything else reads as absent, never as zero.
func CoerceNumber(v any) *int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		i := int(n)
		return &i
	case string:
		t := strings.TrimSpace(n)
		if t == "" {
			return nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		i := int(f)
		return &i
	}
	return nil
}

// SafeRender converts an arbitrary decoded value to display text. Strings
// pass through, nil renders empty, everything else is serialized to JSON
// with a fixed fallback for values the encoder rejects.
func SafeRender(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return renderFallback
	}
	return string(b)
}

// ParseMessageContent extracts display text from a legacy message payload:
// a plain string (possibly wrapped as AIMessageChunk(content='...')) or an
// object carrying a string content field.
func ParseMessageContent(v any) string {
	switch data := v.(type) {
	case string:
		if strings.Contains(data, "AIMessageChunk") {
			if m := legacyContentRe.FindStringSubmatch(data); m != nil {
				return strings.ReplaceAll(m[1], `\'`, "'")
			}
		}
		return data
	case map[string]any:
		if c, ok := data["content"].(string); ok {
			return c
		}
	}
	return ""
}

// ExtractToolMessage pulls the quoted content out of a legacy
// ToolMessage(...) textual payload. Reports false when the payload does not
// carry one.
func ExtractToolMessage(s string) (string, bool) {
	if !strings.Contains(s, "ToolMessage") {
		return "", false
	}
	m := legacyContentRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	content := strings.ReplaceAll(m[1], `\'`, "'")
	content = strings.ReplaceAll(content, `\n`, "\n")
	return content, true
}
