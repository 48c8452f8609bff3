// Package template normalizes log messages into templates by replacing
// variable substrings with typed placeholders, groups lines by template, and
// summarizes JSON field value distributions.
//
// Tokenization is a pure function of the message content: deterministic and
// independent of the order lines are seen in. Placeholders substitute in a
// fixed precedence (UUID, IP, timestamp, hex blob, path, number), so an
// already-placed token is never rewritten by a later, more general pattern.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/loupedev/loupe/internal/logline"
)

var (
	uuidRE = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	ipRE   = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	tsRE   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[\w.+:-]*`)
	hexRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8,}\b`)
	pathRE = regexp.MustCompile(`/[\w./-]+`)
	numRE  = regexp.MustCompile(`-?\d+\.?\d*`)
)

// JSON fields commonly carrying the event identifier, in priority order.
var eventKeys = []string{"event", "message", "msg", "error", "err", "description", "text", "action"}

// Tokenize replaces variable substrings in text with typed placeholders.
func Tokenize(text string) string {
	result := uuidRE.ReplaceAllString(text, "<UUID>")
	result = ipRE.ReplaceAllString(result, "<IP>")
	result = tsRE.ReplaceAllString(result, "<TS>")
	result = hexRE.ReplaceAllString(result, "<HEX>")
	result = pathRE.ReplaceAllString(result, "<PATH>")
	result = numRE.ReplaceAllString(result, "<NUM>")
	return result
}

// For returns the template string for one line. JSON lines template through
// their event field when present, otherwise through their key structure, so
// two objects with the same shape but different values group together.
func For(line logline.LogLine) string {
	if line.ContentType == logline.JSON && line.JSON != nil {
		for _, key := range eventKeys {
			if v, ok := line.JSON[key].(string); ok {
				return key + ":" + Tokenize(v)
			}
		}
		return jsonTemplate(line.JSON)
	}
	return Tokenize(line.Content)
}

func jsonTemplate(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := data[key].(type) {
		case map[string]any:
			parts = append(parts, key+"={"+jsonTemplate(v)+"}")
		case []any:
			parts = append(parts, key+"=[...]")
		case bool:
			parts = append(parts, key+"=<BOOL>")
		case json.Number, float64:
			parts = append(parts, key+"=<NUM>")
		case string:
			tokenized := Tokenize(v)
			if tokenized != v {
				parts = append(parts, key+"="+tokenized)
			} else {
				parts = append(parts, key+"=<STR>")
			}
		default:
			parts = append(parts, key+"=<?>")
		}
	}
	return strings.Join(parts, " ")
}

// Group collects the lines sharing one template.
type Group struct {
	Template string
	Display  string // short human-readable label
	Example  string // content of the first line seen
	Count    int
	Level    logline.Level // most frequent level among the group's lines
	Sample   int           // snapshot index of the first line seen
	Lines    []int         // snapshot indices, in order

	levelCounts map[logline.Level]int
}

func (g *Group) add(index int, level logline.Level) {
	g.Lines = append(g.Lines, index)
	g.Count = len(g.Lines)
	if level == logline.LevelUnknown {
		return
	}
	if g.levelCounts == nil {
		g.levelCounts = make(map[logline.Level]int)
	}
	g.levelCounts[level]++
	best := g.Level
	for lvl, n := range g.levelCounts {
		if best == logline.LevelUnknown || n > g.levelCounts[best] {
			best = lvl
		}
	}
	g.Level = best
}

// GroupLines groups a line snapshot by message template, ordered by
// descending count; equal counts order by template for determinism.
func GroupLines(lines []logline.LogLine) []*Group {
	groups := make(map[string]*Group)
	var order []string

	for i, line := range lines {
		tpl := For(line)
		g, ok := groups[tpl]
		if !ok {
			g = &Group{
				Template: tpl,
				Display:  displayFor(line),
				Example:  line.Content,
				Sample:   i,
			}
			groups[tpl] = g
			order = append(order, tpl)
		}
		g.add(i, line.Level)
	}

	result := make([]*Group, 0, len(order))
	for _, tpl := range order {
		result = append(result, groups[tpl])
	}
	sort.SliceStable(result, func(a, b int) bool {
		if result[a].Count != result[b].Count {
			return result[a].Count > result[b].Count
		}
		return result[a].Template < result[b].Template
	})
	return result
}

func displayFor(line logline.LogLine) string {
	if line.ContentType != logline.JSON || line.JSON == nil {
		return Tokenize(line.Content)
	}
	for _, key := range eventKeys {
		if v, ok := line.JSON[key].(string); ok {
			return Tokenize(v)
		}
	}
	keys := make([]string, 0, len(line.JSON))
	for k := range line.JSON {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shown := keys
	suffix := ""
	if len(keys) > 5 {
		shown = keys[:5]
		suffix = fmt.Sprintf(" +%d", len(keys)-5)
	}
	return "{" + strings.Join(shown, ", ") + suffix + "}"
}

// Regex converts a template back into a regular expression that matches the
// concrete messages it was derived from, for template-derived filter rules.
func Regex(template string) string {
	escaped := regexp.QuoteMeta(template)
	for placeholder, expr := range map[string]string{
		"<UUID>": `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`,
		"<TS>":   `\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[\w.+:-]*`,
		"<IP>":   `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`,
		"<PATH>": `/[\w./-]+`,
		"<HEX>":  `[0-9a-f]{8,}`,
		"<NUM>":  `-?\d+\.?\d*`,
		"<STR>":  `.+?`,
		"<BOOL>": `(?:true|false)`,
	} {
		escaped = strings.ReplaceAll(escaped, regexp.QuoteMeta(placeholder), expr)
	}
	return escaped
}
