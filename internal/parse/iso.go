package parse

// ISOParser handles lines starting with an ISO 8601 or slash-date timestamp.
// It is the generic catch-all and is registered last.
type ISOParser struct{}

func (p *ISOParser) Name() string { return "iso" }

func (p *ISOParser) TryParse(raw string) (Result, bool) {
	ts, content, ok := tryISO(raw)
	if !ok {
		ts, content, ok = trySlashDate(raw)
	}
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
		Component:   componentFromJSON(parsed),
	}, true
}
