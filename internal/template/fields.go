package template

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/loupedev/loupe/internal/logline"
)

// Values are grouped per key; keys with more of them than this are treated
// as identifiers rather than categories and skipped.
const maxFieldCardinality = 20

// Fields present on nearly every JSON line carry no signal for narrowing an
// investigation.
const universalFieldShare = 0.95

const maxFieldValueLen = 50

// Timestamp and identity fields are noise for value grouping.
var skipFieldKeys = map[string]bool{
	"timestamp": true, "time": true, "ts": true, "@timestamp": true,
	"request_id": true, "trace_id": true, "span_id": true,
	"level": true, "log_level": true, "severity": true, "loglevel": true, "lvl": true,
}

// FieldGroup collects the lines sharing one value (or bucket) of one JSON key.
type FieldGroup struct {
	Key     string
	Value   string // exact value, or "0" / ">0" for integer buckets
	Display string
	Exact   bool // false for the synthetic ">0" bucket
	Count   int
	Lines   []int
}

func (g *FieldGroup) add(index int) {
	g.Lines = append(g.Lines, index)
	g.Count = len(g.Lines)
}

// FieldDistribution analyzes JSON field values across a line snapshot.
// String and bool values group by exact value; integers bucket into =0 and
// >0; floats are continuous and skipped, as are high-cardinality keys and
// near-universal fields. Groups come back ordered by ascending count so the
// rarest values surface first.
func FieldDistribution(lines []logline.LogLine) []*FieldGroup {
	groups := make(map[string]*FieldGroup)
	keyValues := make(map[string]map[string]bool)
	totalJSON := 0

	for i, line := range lines {
		if line.ContentType != logline.JSON || line.JSON == nil {
			continue
		}
		totalJSON++
		for key, value := range line.JSON {
			if skipFieldKeys[key] {
				continue
			}
			switch v := value.(type) {
			case json.Number:
				if strings.ContainsAny(v.String(), ".eE") {
					continue // float: continuous, not groupable
				}
				bucket, display, exact := key+">0", key+">0", false
				if v.String() == "0" || v.String() == "-0" {
					bucket, display, exact = key+"=0", key+"=0", true
				}
				g, ok := groups[bucket]
				if !ok {
					val := ">0"
					if exact {
						val = "0"
					}
					g = &FieldGroup{Key: key, Value: val, Display: display, Exact: exact}
					groups[bucket] = g
				}
				g.add(i)
			case string, bool:
				str := stringifyField(v)
				if len(str) > maxFieldValueLen {
					continue
				}
				if keyValues[key] == nil {
					keyValues[key] = make(map[string]bool)
				}
				keyValues[key][str] = true
				groupKey := key + "=" + str
				g, ok := groups[groupKey]
				if !ok {
					g = &FieldGroup{Key: key, Value: str, Display: groupKey, Exact: true}
					groups[groupKey] = g
				}
				g.add(i)
			}
		}
	}

	highCardinality := make(map[string]bool)
	for key, values := range keyValues {
		if len(values) > maxFieldCardinality {
			highCardinality[key] = true
		}
	}

	result := make([]*FieldGroup, 0, len(groups))
	for _, g := range groups {
		if highCardinality[g.Key] {
			continue
		}
		if totalJSON > 0 && float64(g.Count) >= float64(totalJSON)*universalFieldShare {
			continue
		}
		result = append(result, g)
	}

	sort.Slice(result, func(a, b int) bool {
		if result[a].Count != result[b].Count {
			return result[a].Count < result[b].Count
		}
		if result[a].Key != result[b].Key {
			return result[a].Key < result[b].Key
		}
		return result[a].Value < result[b].Value
	})
	return result
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}
