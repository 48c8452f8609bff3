package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/loupedev/loupe/internal/logline"
)

func jsonLine(fields map[string]any) logline.LogLine {
	return logline.LogLine{ContentType: logline.JSON, JSON: fields}
}

func TestFieldDistribution_Buckets(t *testing.T) {
	var lines []logline.LogLine
	for i := 0; i < 5; i++ {
		lines = append(lines, jsonLine(map[string]any{"status": "ok", "code": json.Number("0")}))
	}
	lines = append(lines, jsonLine(map[string]any{"status": "fail", "code": json.Number("7")}))

	groups := FieldDistribution(lines)
	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4: %+v", len(groups), groups)
	}

	// Ascending count, then key, then value.
	wantOrder := []struct {
		key, value string
		count      int
		exact      bool
	}{
		{"code", ">0", 1, false},
		{"status", "fail", 1, true},
		{"code", "0", 5, true},
		{"status", "ok", 5, true},
	}
	for i, want := range wantOrder {
		g := groups[i]
		if g.Key != want.key || g.Value != want.value || g.Count != want.count || g.Exact != want.exact {
			t.Errorf("group %d = {%s %s %d exact=%v}, want %+v", i, g.Key, g.Value, g.Count, g.Exact, want)
		}
	}
}

func TestFieldDistribution_SkipsFloats(t *testing.T) {
	lines := []logline.LogLine{
		jsonLine(map[string]any{"ratio": json.Number("0.5")}),
		jsonLine(map[string]any{"ratio": json.Number("1.5e3")}),
	}
	if groups := FieldDistribution(lines); len(groups) != 0 {
		t.Fatalf("float fields grouped: %+v", groups)
	}
}

func TestFieldDistribution_SkipsHighCardinality(t *testing.T) {
	var lines []logline.LogLine
	for i := 0; i <= maxFieldCardinality; i++ {
		lines = append(lines, jsonLine(map[string]any{"id": fmt.Sprintf("u%d", i), "kind": "request"}))
	}

	groups := FieldDistribution(lines)
	for _, g := range groups {
		if g.Key == "id" {
			t.Fatalf("high-cardinality key grouped: %+v", g)
		}
	}
}

func TestFieldDistribution_SkipsUniversalFields(t *testing.T) {
	var lines []logline.LogLine
	for i := 0; i < 20; i++ {
		lines = append(lines, jsonLine(map[string]any{"env": "prod"}))
	}
	lines = append(lines, jsonLine(map[string]any{"env": "prod", "extra": "x"}))

	groups := FieldDistribution(lines)
	if len(groups) != 1 || groups[0].Key != "extra" {
		t.Fatalf("groups = %+v, want only the extra field", groups)
	}
}

func TestFieldDistribution_SkipsNoiseKeysAndLongValues(t *testing.T) {
	lines := []logline.LogLine{
		jsonLine(map[string]any{
			"timestamp": "2024-01-15T10:30:00Z",
			"level":     "info",
			"blob":      strings.Repeat("x", maxFieldValueLen+1),
			"region":    "us-east-1",
		}),
		jsonLine(map[string]any{"region": "us-east-1"}),
		jsonLine(map[string]any{"region": "eu-west-1"}),
	}

	groups := FieldDistribution(lines)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want the two region values only", groups)
	}
	for _, g := range groups {
		if g.Key != "region" {
			t.Errorf("unexpected key %q in %+v", g.Key, g)
		}
	}
}

func TestFieldDistribution_IgnoresTextLines(t *testing.T) {
	lines := []logline.LogLine{
		{Content: "plain text", ContentType: logline.Text},
		jsonLine(map[string]any{"a": "1x"}),
		jsonLine(map[string]any{"a": "2x"}),
	}
	groups := FieldDistribution(lines)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want two values of a", groups)
	}
}
