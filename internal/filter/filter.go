// Package filter evaluates include/exclude rules over log lines.
//
// Include rules combine with OR: a line is a candidate if any enabled
// include rule matches, or vacuously when there are none. Exclude rules
// combine with AND-exclusion: matching any enabled exclude rule removes the
// line. Regex patterns are compiled exactly once, at rule creation; a rule
// whose pattern fails to compile is marked failed and never matches, without
// affecting sibling rules.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// ErrBadPattern marks a rule whose regex failed to compile. The failure is
// carried on the rule itself, not returned from the constructor.
var ErrBadPattern = errors.New("bad filter pattern")

// Type says whether a rule keeps or removes matching lines.
type Type int8

const (
	Include Type = iota
	Exclude
)

func (t Type) String() string {
	if t == Exclude {
		return "exclude"
	}
	return "include"
}

// Kind selects what a rule matches against.
type Kind int8

const (
	KindText      Kind = iota // substring or regex over the raw line
	KindJSONField             // dotted-path lookup with exact leaf equality
	KindComponent             // component equality
	KindLevel                 // level threshold (>=)
	KindTimeRange             // timestamp range
)

// Rule is a single filter rule. Build rules with the constructors so regex
// compilation happens exactly once; the zero value matches nothing useful.
type Rule struct {
	Type          Type
	Kind          Kind
	Pattern       string
	Enabled       bool
	Regex         bool
	CaseSensitive bool

	JSONKey   string
	JSONValue string
	Component string
	MinLevel  logline.Level
	Start     time.Time
	End       time.Time

	re  *regexp.Regexp
	err error
}

// NewTextRule builds a substring or regex rule over the raw line text.
// An invalid regex pattern does not return an error here: the rule comes
// back in the failed state and simply never matches, so one bad rule cannot
// disturb its siblings. Check Err to surface the failure.
func NewTextRule(t Type, pattern string, isRegex, caseSensitive bool) *Rule {
	r := &Rule{
		Type:          t,
		Kind:          KindText,
		Pattern:       pattern,
		Enabled:       true,
		Regex:         isRegex,
		CaseSensitive: caseSensitive,
	}
	if isRegex {
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			r.err = fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
		} else {
			r.re = re
		}
	}
	return r
}

// NewJSONRule builds a rule matching a dotted key path against an exact
// leaf value in the line's parsed JSON.
func NewJSONRule(t Type, keyPath, value string) *Rule {
	return &Rule{Type: t, Kind: KindJSONField, Enabled: true, JSONKey: keyPath, JSONValue: value}
}

// NewComponentRule builds a rule matching the line's component exactly.
func NewComponentRule(t Type, component string) *Rule {
	return &Rule{Type: t, Kind: KindComponent, Enabled: true, Component: component}
}

// NewLevelRule builds a rule matching lines at or above the given level.
func NewLevelRule(t Type, min logline.Level) *Rule {
	return &Rule{Type: t, Kind: KindLevel, Enabled: true, MinLevel: min}
}

// NewTimeRangeRule builds a rule matching timestamps in [start, end].
// A zero start or end leaves that bound open.
func NewTimeRangeRule(t Type, start, end time.Time) *Rule {
	return &Rule{Type: t, Kind: KindTimeRange, Enabled: true, Start: start, End: end}
}

// Err reports the compilation failure for a failed rule, or nil.
func (r *Rule) Err() error {
	return r.err
}

// Matches reports whether the line satisfies this rule's condition,
// regardless of rule type or enabled state. Failed rules never match.
func (r *Rule) Matches(line logline.LogLine) bool {
	if r.err != nil {
		return false
	}
	switch r.Kind {
	case KindJSONField:
		return r.matchesJSON(line)
	case KindComponent:
		return line.Component == r.Component
	case KindLevel:
		return line.Level != logline.LevelUnknown && line.Level >= r.MinLevel
	case KindTimeRange:
		return r.matchesTime(line)
	default:
		return r.matchesText(line)
	}
}

func (r *Rule) matchesText(line logline.LogLine) bool {
	if r.Regex {
		return r.re != nil && r.re.MatchString(line.Raw)
	}
	if r.CaseSensitive {
		return strings.Contains(line.Raw, r.Pattern)
	}
	return strings.Contains(strings.ToLower(line.Raw), strings.ToLower(r.Pattern))
}

func (r *Rule) matchesJSON(line logline.LogLine) bool {
	if line.JSON == nil || r.JSONKey == "" {
		return false
	}
	value, ok := NestedValue(line.JSON, r.JSONKey)
	if !ok {
		return false
	}
	return fmt.Sprint(value) == r.JSONValue
}

func (r *Rule) matchesTime(line logline.LogLine) bool {
	if !line.HasTimestamp() {
		return false
	}
	if !r.Start.IsZero() && line.Timestamp.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && line.Timestamp.After(r.End) {
		return false
	}
	return true
}

// NestedValue walks a dot-separated key path into nested JSON objects.
func NestedValue(data map[string]any, keyPath string) (any, bool) {
	var current any = data
	for _, key := range strings.Split(keyPath, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Apply returns the indices of lines passing the rule set, in order.
func Apply(lines []logline.LogLine, rules []*Rule) []int {
	includes, excludes := split(rules)

	if len(includes) == 0 && len(excludes) == 0 {
		all := make([]int, len(lines))
		for i := range lines {
			all[i] = i
		}
		return all
	}

	result := make([]int, 0, len(lines))
	for i, line := range lines {
		if passes(line, includes, excludes) {
			result = append(result, i)
		}
	}
	return result
}

// Check evaluates a single line against the rule set. This is the
// incremental path for newly tailed lines; it agrees with Apply.
func Check(line logline.LogLine, rules []*Rule) bool {
	includes, excludes := split(rules)
	return passes(line, includes, excludes)
}

func split(rules []*Rule) (includes, excludes []*Rule) {
	for _, r := range rules {
		if r == nil || !r.Enabled {
			continue
		}
		if r.Type == Include {
			includes = append(includes, r)
		} else {
			excludes = append(excludes, r)
		}
	}
	return includes, excludes
}

func passes(line logline.LogLine, includes, excludes []*Rule) bool {
	if len(includes) > 0 {
		matched := false
		for _, r := range includes {
			if r.Matches(line) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, r := range excludes {
		if r.Matches(line) {
			return false
		}
	}
	return true
}
