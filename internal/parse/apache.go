package parse

// ApacheParser handles Apache/Nginx Common Log Format timestamps:
// "[15/Jan/2024:10:30:00 +0000] ...".
type ApacheParser struct{}

func (p *ApacheParser) Name() string { return "apache" }

func (p *ApacheParser) TryParse(raw string) (Result, bool) {
	ts, content, ok := tryApache(raw)
	if !ok {
		return Result{}, false
	}
	contentType, parsed := ClassifyContent(content)
	return Result{
		Timestamp:   ts,
		Content:     content,
		ContentType: contentType,
		JSON:        parsed,
		Level:       ExtractLevel(content, parsed),
	}, true
}
