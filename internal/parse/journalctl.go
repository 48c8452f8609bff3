package parse

import (
	"strconv"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// journalctl PRIORITY values follow syslog severity numbering.
var priorityLevel = map[string]logline.Level{
	"0": logline.LevelFatal, // emerg
	"1": logline.LevelFatal, // alert
	"2": logline.LevelFatal, // crit
	"3": logline.LevelError,
	"4": logline.LevelWarn,
	"5": logline.LevelInfo, // notice
	"6": logline.LevelInfo,
	"7": logline.LevelDebug,
}

// JournalctlParser handles `journalctl -o json` output. Each line is a JSON
// object with well-known systemd fields.
type JournalctlParser struct{}

func (p *JournalctlParser) Name() string { return "journalctl" }

func (p *JournalctlParser) TryParse(raw string) (Result, bool) {
	contentType, parsed := ClassifyContent(raw)
	if contentType != logline.JSON {
		return Result{}, false
	}

	tsVal, ok := parsed["__REALTIME_TIMESTAMP"]
	if !ok {
		tsVal, ok = parsed["_SOURCE_REALTIME_TIMESTAMP"]
	}
	if !ok {
		return Result{}, false
	}
	micros, err := strconv.ParseInt(stringify(tsVal), 10, 64)
	if err != nil {
		return Result{}, false
	}
	ts := time.UnixMicro(micros).UTC()

	component := ""
	if v, ok := parsed["SYSLOG_IDENTIFIER"].(string); ok {
		component = v
	} else if v, ok := parsed["_COMM"].(string); ok {
		component = v
	}

	level := logline.LevelUnknown
	if prio, ok := parsed["PRIORITY"]; ok {
		level = priorityLevel[stringify(prio)]
	}
	if level == logline.LevelUnknown {
		if msg, ok := parsed["MESSAGE"].(string); ok && msg != "" {
			level = ExtractLevel(msg, nil)
		}
	}

	return Result{
		Timestamp:   ts,
		Content:     raw,
		ContentType: logline.JSON,
		JSON:        parsed,
		Level:       level,
		Component:   component,
	}, true
}
