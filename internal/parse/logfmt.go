package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// key=value or key="quoted value" pairs
var logfmtPairRE = regexp.MustCompile(`([\w.]+)=(?:"([^"]*)"|(\S*))`)

var (
	logfmtTimeKeys  = []string{"time", "ts", "timestamp", "t", "datetime"}
	logfmtLevelKeys = []string{"level", "lvl", "severity", "loglevel", "log_level"}
	logfmtMsgKeys   = []string{"msg", "message", "error", "err"}
	logfmtCompKeys  = []string{"service", "component", "app", "source", "caller", "logger", "name"}
)

const (
	minLogfmtPairs   = 2
	epochMsThreshold = 1e12
)

// LogfmtParser handles logfmt structured logs, e.g.
// `time=2024-01-15T10:30:00Z level=info msg="request handled" service=api`.
type LogfmtParser struct{}

func (p *LogfmtParser) Name() string { return "logfmt" }

func (p *LogfmtParser) TryParse(raw string) (Result, bool) {
	pairs := logfmtPairRE.FindAllStringSubmatch(raw, -1)
	if len(pairs) < minLogfmtPairs {
		return Result{}, false
	}

	data := make(map[string]string, len(pairs))
	for _, m := range pairs {
		if m[2] != "" {
			data[m[1]] = m[2]
		} else {
			data[m[1]] = m[3]
		}
	}

	// A time-like key is required; two bare k=v pairs alone are too weak a
	// signal to claim the line.
	hasTimeKey := false
	var ts time.Time
	for _, tk := range logfmtTimeKeys {
		v, ok := data[tk]
		if !ok {
			continue
		}
		hasTimeKey = true
		if parsed, ok := parseLogfmtTime(v); ok {
			ts = parsed
			break
		}
	}
	if !hasTimeKey {
		return Result{}, false
	}

	level := logline.LevelUnknown
	for _, lk := range logfmtLevelKeys {
		if v, ok := data[lk]; ok {
			if lvl := logline.ParseLevel(strings.ToLower(v)); lvl != logline.LevelUnknown {
				level = lvl
				break
			}
		}
	}

	content := ""
	for _, mk := range logfmtMsgKeys {
		if v, ok := data[mk]; ok {
			content = v
			break
		}
	}
	if content == "" {
		content = raw
	}

	component := ""
	for _, ck := range logfmtCompKeys {
		if v, ok := data[ck]; ok {
			component = v
			break
		}
	}

	return Result{
		Timestamp:   ts,
		Content:     content,
		ContentType: logline.Text,
		Level:       level,
		Component:   component,
	}, true
}

func parseLogfmtTime(value string) (time.Time, bool) {
	if ts, ok := parseISO(value); ok {
		return ts, true
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, false
	}
	if num > epochMsThreshold {
		return time.UnixMilli(int64(num)).UTC(), true
	}
	sec := int64(num)
	nsec := int64((num - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}
