package parse

import "regexp"

// "service-name  | rest of line"
var composePrefixRE = regexp.MustCompile(`^([\w.-]+)\s+\|\s+`)

// DockerParser handles Docker Compose output, where every line is prefixed
// with the originating service name.
type DockerParser struct{}

func (p *DockerParser) Name() string { return "docker" }

func (p *DockerParser) TryParse(raw string) (Result, bool) {
	m := composePrefixRE.FindStringSubmatch(raw)
	if m == nil {
		return Result{}, false
	}
	component := m[1]
	remainder := raw[len(m[0]):]

	// The service's own output may carry its own timestamp format.
	for _, sub := range []Parser{&ISOParser{}, &SyslogParser{}} {
		if res, ok := sub.TryParse(remainder); ok {
			res.Component = component
			return res, true
		}
	}

	contentType, parsed := ClassifyContent(remainder)
	return Result{
		Content:     remainder,
		ContentType: contentType,
		JSON:        parsed,
		Level:       ExtractLevel(remainder, parsed),
		Component:   component,
	}, true
}
