package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// Python stdlib logging default format:
// "2024-01-15 10:30:00,123 - name - LEVEL - message", separators optional.
// The comma before milliseconds distinguishes this from generic ISO.
var pythonLogRE = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}),(\d{3})\s+` +
		`(?:-\s+)?([\w.]+)\s+` +
		`(?:-\s+)?([A-Z]+)\s+` +
		`(?:-\s+)?(.*)$`)

// PythonLogParser handles the Python logging module's default line format.
type PythonLogParser struct{}

func (p *PythonLogParser) Name() string { return "python" }

func (p *PythonLogParser) TryParse(raw string) (Result, bool) {
	m := pythonLogRE.FindStringSubmatch(raw)
	if m == nil {
		return Result{}, false
	}
	ts, ok := parseISO(m[1])
	if !ok {
		return Result{}, false
	}
	ms, _ := strconv.Atoi(m[2])
	ts = ts.Add(time.Duration(ms) * time.Millisecond)

	level := logline.ParseLevel(strings.ToLower(m[4]))
	component := m[3]
	content := m[5]

	contentType, parsed := ClassifyContent(content)
	if level == logline.LevelUnknown {
		level = ExtractLevel(content, parsed)
	}

	return Result{
		Timestamp:   ts,
		Content:     content,
		ContentType: contentType,
		JSON:        parsed,
		Level:       level,
		Component:   component,
	}, true
}
