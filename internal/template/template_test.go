package template

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/loupedev/loupe/internal/logline"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "uuid",
			in:   "user 550e8400-e29b-41d4-a716-446655440000 logged in",
			want: "user <UUID> logged in",
		},
		{
			name: "ip and port",
			in:   "Connection from 10.0.0.1 port 22",
			want: "Connection from <IP> port <NUM>",
		},
		{
			name: "timestamp",
			in:   "at 2024-01-15T10:30:00Z done",
			want: "at <TS> done",
		},
		{
			name: "hex blob",
			in:   "commit deadbeefcafe pushed",
			want: "commit <HEX> pushed",
		},
		{
			name: "path swallows its digits",
			in:   "GET /api/users/123 took 42ms",
			want: "GET <PATH> took <NUM>ms",
		},
		{
			name: "no variables",
			in:   "server ready",
			want: "server ready",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); got != tt.want {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeGroupsVariants(t *testing.T) {
	variants := []string{
		"Connection from 10.0.0.1 port 22",
		"Connection from 192.168.1.9 port 2222",
		"Connection from 172.16.254.3 port 8080",
	}
	first := Tokenize(variants[0])
	for _, v := range variants[1:] {
		if got := Tokenize(v); got != first {
			t.Errorf("Tokenize(%q) = %q, want %q", v, got, first)
		}
	}
}

func TestFor_JSON(t *testing.T) {
	withEvent := logline.LogLine{
		ContentType: logline.JSON,
		JSON:        map[string]any{"event": "user login", "user_id": json.Number("123")},
	}
	if got := For(withEvent); got != "event:user login" {
		t.Errorf("For = %q, want event:user login", got)
	}

	structural := logline.LogLine{
		ContentType: logline.JSON,
		JSON: map[string]any{
			"count": json.Number("4"),
			"ok":    true,
			"name":  "bob",
		},
	}
	if got := For(structural); got != "count=<NUM> name=<STR> ok=<BOOL>" {
		t.Errorf("For = %q, want sorted key structure", got)
	}

	// Same shape, different values: one template.
	other := logline.LogLine{
		ContentType: logline.JSON,
		JSON: map[string]any{
			"count": json.Number("9000"),
			"ok":    false,
			"name":  "alice",
		},
	}
	if For(structural) != For(other) {
		t.Errorf("same-shape objects got different templates: %q vs %q", For(structural), For(other))
	}
}

func TestGroupLines(t *testing.T) {
	lines := []logline.LogLine{
		{Content: "request 1 handled", Level: logline.LevelInfo},
		{Content: "request 2 handled", Level: logline.LevelInfo},
		{Content: "request 3 handled", Level: logline.LevelError},
		{Content: "cache flushed"},
	}

	groups := GroupLines(lines)
	if len(groups) != 2 {
		t.Fatalf("GroupLines = %d groups, want 2", len(groups))
	}

	top := groups[0]
	if top.Template != "request <NUM> handled" || top.Count != 3 {
		t.Fatalf("top group = %q count %d, want request template count 3", top.Template, top.Count)
	}
	if top.Level != logline.LevelInfo {
		t.Errorf("top group level = %v, want most frequent info", top.Level)
	}
	wantIndices := []int{0, 1, 2}
	for i, idx := range top.Lines {
		if idx != wantIndices[i] {
			t.Errorf("top group Lines = %v, want %v", top.Lines, wantIndices)
			break
		}
	}
	if top.Sample != 0 || top.Example != "request 1 handled" {
		t.Errorf("sample = %d example %q, want first occurrence", top.Sample, top.Example)
	}

	if groups[1].Template != "cache flushed" || groups[1].Count != 1 {
		t.Errorf("second group = %q count %d", groups[1].Template, groups[1].Count)
	}
}

func TestGroupLines_TieOrderIsDeterministic(t *testing.T) {
	lines := []logline.LogLine{
		{Content: "zebra event"},
		{Content: "alpha event"},
	}
	for i := 0; i < 5; i++ {
		groups := GroupLines(lines)
		if len(groups) != 2 || groups[0].Template != "alpha event" {
			t.Fatalf("tie order not deterministic: %q first", groups[0].Template)
		}
	}
}

func TestRegexMatchesOriginal(t *testing.T) {
	messages := []string{
		"GET /api/users/123 took 42ms",
		"user 550e8400-e29b-41d4-a716-446655440000 logged in",
		"Connection from 10.0.0.1 port 22",
	}
	for _, msg := range messages {
		tpl := Tokenize(msg)
		re, err := regexp.Compile(Regex(tpl))
		if err != nil {
			t.Fatalf("Regex(%q) does not compile: %v", tpl, err)
		}
		if !re.MatchString(msg) {
			t.Errorf("Regex(%q) = %q does not match %q", tpl, re.String(), msg)
		}
	}
}
