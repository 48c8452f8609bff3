package logline

import "time"

// ContentType classifies the payload of a log line.
type ContentType int8

const (
	Text ContentType = iota
	JSON
)

func (c ContentType) String() string {
	if c == JSON {
		return "json"
	}
	return "text"
}

// Level is a log severity. LevelUnknown means no level was detected;
// the remaining values are ordered so that threshold comparisons work.
type Level int8

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return ""
}

// ParseLevel maps a level string, including common synonyms, to a Level.
// Returns LevelUnknown for unrecognized values.
func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug", "dbg":
		return LevelDebug
	case "info", "information", "notice":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	case "fatal", "critical", "crit", "panic", "emerg":
		return LevelFatal
	}
	return LevelUnknown
}

// LogLine is one parsed unit of input. It is created once at ingestion time
// and never mutated afterwards; Number is assigned by the line store and is
// dense and stable for the whole session.
type LogLine struct {
	Number      int
	Raw         string
	Timestamp   time.Time // zero when no timestamp was recognized
	ContentType ContentType
	Content     string         // display form (raw with any prefixes stripped)
	JSON        map[string]any // non-nil iff ContentType == JSON and decoding succeeded
	Level       Level
	Component   string
}

// HasTimestamp reports whether a timestamp was recognized for this line.
func (l LogLine) HasTimestamp() bool {
	return !l.Timestamp.IsZero()
}
