package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/loupedev/loupe/internal/logline"
)

// Decoding very large payloads is pointless for display purposes and can
// stall ingestion, so classification gives up beyond this size.
const maxJSONDecodeBytes = 1 << 20

// JSON field names checked for a log level, in priority order.
var levelJSONKeys = []string{"log_level", "level", "severity", "loglevel", "lvl"}

// JSON field names checked for a component, in priority order.
var componentJSONKeys = []string{"service", "component", "app", "source", "container", "pod"}

var (
	levelBracketRE = regexp.MustCompile(`(?i)\[(TRACE|DEBUG|DBG|INFO|WARN|WARNING|ERROR|ERR|FATAL|CRITICAL|CRIT|PANIC|EMERG)\]`)
	levelKVRE      = regexp.MustCompile(`(?i)(?:level|severity)=(\w+)`)
	levelWordRE    = regexp.MustCompile(`(?i)(?:^|\s)(TRACE|DEBUG|DBG|INFO|WARN|WARNING|ERROR|ERR|FATAL|CRITICAL)\s`)
)

var errorKeywords = []string{"fail", "refused", "denied", "timeout", "abort", "segfault", "panic"}

var warnKeywords = []string{"deprecated", "warning:", "warn:", "cannot", "unable"}

// ClassifyContent decides whether content is a JSON object or plain text.
// The parsed object is returned for JSON content, nil otherwise.
func ClassifyContent(content string) (logline.ContentType, map[string]any) {
	stripped := strings.TrimSpace(content)
	if !strings.HasPrefix(stripped, "{") || len(stripped) > maxJSONDecodeBytes {
		return logline.Text, nil
	}
	// UseNumber keeps integer and float field values distinguishable for the
	// downstream field distribution analysis.
	dec := json.NewDecoder(strings.NewReader(stripped))
	dec.UseNumber()
	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return logline.Text, nil
	}
	return logline.JSON, parsed
}

// ExtractLevel finds a log level in content or its parsed JSON form.
// JSON fields win over text patterns, which win over keyword heuristics.
func ExtractLevel(content string, parsed map[string]any) logline.Level {
	if parsed != nil {
		for _, key := range levelJSONKeys {
			raw, ok := parsed[key]
			if !ok {
				continue
			}
			if lvl := logline.ParseLevel(strings.TrimSpace(strings.ToLower(stringify(raw)))); lvl != logline.LevelUnknown {
				return lvl
			}
		}
	}

	for _, re := range []*regexp.Regexp{levelBracketRE, levelKVRE, levelWordRE} {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if lvl := logline.ParseLevel(strings.ToLower(m[1])); lvl != logline.LevelUnknown {
			return lvl
		}
	}

	lower := strings.ToLower(content)
	for _, kw := range errorKeywords {
		if strings.Contains(lower, kw) {
			return logline.LevelError
		}
	}
	for _, kw := range warnKeywords {
		if strings.Contains(lower, kw) {
			return logline.LevelWarn
		}
	}

	return logline.LevelUnknown
}

// componentFromJSON returns the first string-valued component field.
func componentFromJSON(parsed map[string]any) string {
	if parsed == nil {
		return ""
	}
	for _, key := range componentJSONKeys {
		if v, ok := parsed[key].(string); ok {
			return v
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
