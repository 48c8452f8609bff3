package parse

import "regexp"

// "hostname program[pid]: message"
var syslogHostRE = regexp.MustCompile(`^([a-zA-Z][\w.-]+)\s+([\w./-]+?)(?:\[(\d+)\])?:\s+`)

// SyslogParser handles RFC 3164 syslog lines:
// "Mon DD HH:MM:SS hostname program[pid]: message".
type SyslogParser struct{}

func (p *SyslogParser) Name() string { return "syslog" }

func (p *SyslogParser) TryParse(raw string) (Result, bool) {
	ts, content, ok := trySyslog(raw)
	if !ok {
		return Result{}, false
	}

	// The program name, with pid when present, becomes the component.
	component := ""
	if m := syslogHostRE.FindStringSubmatch(content); m != nil {
		component = m[2]
		if m[3] != "" {
			component = m[2] + "[" + m[3] + "]"
		}
		content = content[len(m[0]):]
	}

	contentType, parsed := ClassifyContent(content)
	return Result{
		Timestamp:   ts,
		Content:     content,
		ContentType: contentType,
		JSON:        parsed,
		Level:       ExtractLevel(content, parsed),
		Component:   component,
	}, true
}
