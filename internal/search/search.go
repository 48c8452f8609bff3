// Package search finds text or regex matches across a line snapshot and
// provides a wrapping navigation cursor over the result.
package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/loupedev/loupe/internal/logline"
)

// Direction selects where navigation starts relative to the match list.
type Direction int8

const (
	Forward Direction = iota
	Backward
)

// Query describes one search.
type Query struct {
	Pattern       string
	CaseSensitive bool
	Regex         bool
	Direction     Direction
}

// Match locates one occurrence: the line index plus the byte offsets of the
// matched span within the raw line.
type Match struct {
	Line  int
	Start int
	End   int
}

// FindMatches returns every non-overlapping match, ordered by line and then
// left to right within a line. An invalid regex pattern is reported as an
// error so the caller can disable the query.
func FindMatches(lines []logline.LogLine, q Query) ([]Match, error) {
	if q.Pattern == "" {
		return nil, nil
	}

	if q.Regex {
		expr := q.Pattern
		if !q.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile search pattern %q: %w", q.Pattern, err)
		}
		var matches []Match
		for i, line := range lines {
			for _, loc := range re.FindAllStringIndex(line.Raw, -1) {
				matches = append(matches, Match{Line: i, Start: loc[0], End: loc[1]})
			}
		}
		return matches, nil
	}

	pattern := q.Pattern
	if !q.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	var matches []Match
	for i, line := range lines {
		raw := line.Raw
		if !q.CaseSensitive {
			raw = strings.ToLower(raw)
		}
		for start := 0; ; {
			pos := strings.Index(raw[start:], pattern)
			if pos < 0 {
				break
			}
			pos += start
			matches = append(matches, Match{Line: i, Start: pos, End: pos + len(pattern)})
			start = pos + len(pattern)
		}
	}
	return matches, nil
}

// Cursor navigates a match list. Next and Prev move to the nearest match
// strictly after or before the current one and wrap around the ends of the
// list; the wrapped result distinguishes a wrap from a normal advance.
type Cursor struct {
	matches []Match
	pos     int // index into matches; -1 before first navigation
}

// NewCursor builds a cursor positioned before the first match.
func NewCursor(matches []Match) *Cursor {
	return &Cursor{matches: matches, pos: -1}
}

// Len returns the total number of matches.
func (c *Cursor) Len() int {
	return len(c.matches)
}

// Current returns the match under the cursor, if any.
func (c *Cursor) Current() (Match, bool) {
	if c.pos < 0 || c.pos >= len(c.matches) {
		return Match{}, false
	}
	return c.matches[c.pos], true
}

// Next advances to the following match. ok is false when there are no
// matches at all; wrapped is true when the cursor passed the end of the list.
func (c *Cursor) Next() (m Match, wrapped, ok bool) {
	if len(c.matches) == 0 {
		return Match{}, false, false
	}
	if c.pos < 0 {
		// Before first navigation: landing on the first match is not a wrap.
		c.pos = 0
		return c.matches[c.pos], false, true
	}
	c.pos++
	if c.pos >= len(c.matches) {
		c.pos = 0
		wrapped = true
	}
	return c.matches[c.pos], wrapped, true
}

// Prev moves to the preceding match, wrapping to the last one from the
// front. A cursor that has not navigated yet starts at the last match.
func (c *Cursor) Prev() (m Match, wrapped, ok bool) {
	if len(c.matches) == 0 {
		return Match{}, false, false
	}
	if c.pos < 0 {
		c.pos = len(c.matches) - 1
		return c.matches[c.pos], false, true
	}
	c.pos--
	if c.pos < 0 {
		c.pos = len(c.matches) - 1
		wrapped = true
	}
	return c.matches[c.pos], wrapped, true
}

// SeekLine positions the cursor so the next call to Next returns the first
// match at or after the given line index.
func (c *Cursor) SeekLine(line int) {
	for i, m := range c.matches {
		if m.Line >= line {
			c.pos = i - 1
			return
		}
	}
	c.pos = len(c.matches) - 1
}
