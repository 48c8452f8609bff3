package parse

import (
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// Result is the intermediate output of a parser's match attempt. Field
// defaults (zero timestamp, LevelUnknown, empty component) mean "not found".
type Result struct {
	Timestamp   time.Time
	Content     string
	ContentType logline.ContentType
	JSON        map[string]any
	Level       logline.Level
	Component   string
}

// Parser recognizes one log format family. TryParse reports no-match via the
// boolean; it never fails in any other way, so one bad line cannot abort
// ingestion.
type Parser interface {
	// Name is a short identifier, e.g. "syslog".
	Name() string
	// TryParse attempts to extract structured fields from a raw line.
	TryParse(raw string) (Result, bool)
}

// Default sample size and match-rate threshold for format auto-detection.
// Both are configurable; these are the values used when the configuration
// does not say otherwise.
const (
	DetectSampleLines = 20
	DetectMinRate     = 0.5
)

// Registry holds parsers in priority order and drives auto-detection.
type Registry struct {
	parsers []Parser
}

// NewRegistry returns a registry with all built-in parsers registered in
// priority order: more specific formats first, the generic ISO catch-all last.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(&DockerParser{})
	r.Register(&KubernetesParser{})
	r.Register(&JournalctlParser{})
	r.Register(&PythonLogParser{})
	r.Register(&ApacheParser{})
	r.Register(&SyslogParser{})
	r.Register(&LogfmtParser{})
	r.Register(&ISOParser{})
	return r
}

// Register appends a parser at the lowest priority.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parsers returns the registered parsers in priority order.
func (r *Registry) Parsers() []Parser {
	return r.parsers
}

// Lookup returns the parser with the given name, or nil.
func (r *Registry) Lookup(name string) Parser {
	for _, p := range r.parsers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Detect scores the sample against every parser and picks the first one, in
// priority order, whose match rate strictly exceeds minRate. A minRate of
// zero or less falls back to DetectMinRate. The caller owns the sample size;
// Detect considers every line it is given. A nil result means no single
// format dominates and callers should parse line by line (auto mode); this
// is the normal outcome for merged multi-format streams.
func (r *Registry) Detect(sample []string, minRate float64) Parser {
	if minRate <= 0 {
		minRate = DetectMinRate
	}
	if len(sample) == 0 {
		return nil
	}
	for _, p := range r.parsers {
		matched := 0
		for _, raw := range sample {
			if _, ok := p.TryParse(raw); ok {
				matched++
			}
		}
		if float64(matched)/float64(len(sample)) > minRate {
			return p
		}
	}
	return nil
}

// ParseLine parses a raw line with the given parser, or with every registered
// parser in priority order when parser is nil. It always produces a LogLine:
// lines matching no format come back as unparsed text carrying the raw input.
func (r *Registry) ParseLine(raw string, parser Parser) logline.LogLine {
	var res Result
	ok := false
	if parser != nil {
		res, ok = parser.TryParse(raw)
	} else {
		for _, p := range r.parsers {
			if res, ok = p.TryParse(raw); ok {
				break
			}
		}
	}

	if !ok {
		contentType, parsed := ClassifyContent(raw)
		return logline.LogLine{
			Raw:         raw,
			ContentType: contentType,
			Content:     raw,
			JSON:        parsed,
			Level:       ExtractLevel(raw, parsed),
			Component:   componentFromJSON(parsed),
		}
	}

	// A recognized timestamp without an explicit level reads as routine output.
	if res.Level == logline.LevelUnknown && !res.Timestamp.IsZero() {
		res.Level = logline.LevelInfo
	}

	return logline.LogLine{
		Raw:         raw,
		Timestamp:   res.Timestamp,
		ContentType: res.ContentType,
		Content:     res.Content,
		JSON:        res.JSON,
		Level:       res.Level,
		Component:   res.Component,
	}
}
