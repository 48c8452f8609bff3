package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNum = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

var (
	// "2024-01-15T10:30:00Z", "2024-01-15 10:30:00.123", "2024-01-15T10:30:00+02:00"
	isoPrefixRE = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[\sT]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+`)
	// "Jan 15 10:30:00" or "Jan  5 10:30:00"
	syslogPrefixRE = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2})\s+(\d{2}):(\d{2}):(\d{2})\s+`)
	// "[15/Jan/2024:10:30:00 +0000]"
	apachePrefixRE = regexp.MustCompile(`^\[(\d{2})/(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)/(\d{4}):(\d{2}):(\d{2}):(\d{2})\s+[+-]\d{4}\]\s+`)
	// "2024/01/15 10:30:00"
	slashPrefixRE = regexp.MustCompile(`^(\d{4})/(\d{2})/(\d{2})\s+(\d{2}):(\d{2}):(\d{2})\s+`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
}

// parseISO parses an ISO 8601 style value with or without fraction and zone.
func parseISO(value string) (time.Time, bool) {
	normalized := strings.Replace(value, " ", "T", 1)
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, normalized); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// tryISO extracts a leading ISO 8601 timestamp, returning the remainder.
func tryISO(raw string) (time.Time, string, bool) {
	m := isoPrefixRE.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, raw, false
	}
	ts, ok := parseISO(m[1])
	if !ok {
		return time.Time{}, raw, false
	}
	return ts, raw[len(m[0]):], true
}

// trySyslog extracts a leading syslog month-day timestamp. The year is not
// present in the format, so the current year is assumed.
func trySyslog(raw string) (time.Time, string, bool) {
	m := syslogPrefixRE.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, raw, false
	}
	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	sec, _ := strconv.Atoi(m[5])
	ts := time.Date(time.Now().UTC().Year(), monthNum[m[1]], day, hour, minute, sec, 0, time.UTC)
	return ts, raw[len(m[0]):], true
}

// tryApache extracts a leading Apache CLF bracketed timestamp.
func tryApache(raw string) (time.Time, string, bool) {
	m := apachePrefixRE.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, raw, false
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	ts := time.Date(year, monthNum[m[2]], day, hour, minute, sec, 0, time.UTC)
	return ts, raw[len(m[0]):], true
}

// trySlashDate extracts a leading "YYYY/MM/DD HH:MM:SS" timestamp.
func trySlashDate(raw string) (time.Time, string, bool) {
	m := slashPrefixRE.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, raw, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	ts := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	return ts, raw[len(m[0]):], true
}
