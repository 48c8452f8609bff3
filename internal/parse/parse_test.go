package parse

import (
	"fmt"
	"testing"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

func TestParseLine_Formats(t *testing.T) {
	registry := NewRegistry()

	syslogTS := time.Date(time.Now().UTC().Year(), time.January, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		raw           string
		wantTS        time.Time
		wantType      logline.ContentType
		wantLevel     logline.Level
		wantComponent string
		wantContent   string
	}{
		{
			name:        "iso with json payload",
			raw:         `2024-01-15T10:30:00Z {"level":"error","event":"x"}`,
			wantTS:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:    logline.JSON,
			wantLevel:   logline.LevelError,
			wantContent: `{"level":"error","event":"x"}`,
		},
		{
			name:          "syslog with program and pid",
			raw:           "Jan 15 10:30:00 myhost sshd[123]: Accepted publickey for root",
			wantTS:        syslogTS,
			wantType:      logline.Text,
			wantLevel:     logline.LevelInfo,
			wantComponent: "sshd[123]",
			wantContent:   "Accepted publickey for root",
		},
		{
			name:          "docker compose prefix",
			raw:           "web-1  | 2024-01-15T10:30:00Z GET /health",
			wantTS:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:      logline.Text,
			wantLevel:     logline.LevelInfo,
			wantComponent: "web-1",
			wantContent:   "GET /health",
		},
		{
			name:          "kubernetes bracketed pod",
			raw:           "[pod-abc123] 2024-01-15T10:30:00Z started",
			wantTS:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:      logline.Text,
			wantLevel:     logline.LevelInfo,
			wantComponent: "pod-abc123",
			wantContent:   "started",
		},
		{
			name:          "journalctl json export",
			raw:           `{"__REALTIME_TIMESTAMP":"1705314600000000","MESSAGE":"Started unit","PRIORITY":"6","SYSLOG_IDENTIFIER":"systemd"}`,
			wantTS:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:      logline.JSON,
			wantLevel:     logline.LevelInfo,
			wantComponent: "systemd",
		},
		{
			name:          "python logging default format",
			raw:           "2024-01-15 10:30:00,123 - myapp.module - ERROR - something failed",
			wantTS:        time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC),
			wantType:      logline.Text,
			wantLevel:     logline.LevelError,
			wantComponent: "myapp.module",
			wantContent:   "something failed",
		},
		{
			name:        "apache common log format",
			raw:         `[15/Jan/2024:10:30:00 +0000] "GET / HTTP/1.1" 200`,
			wantTS:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:    logline.Text,
			wantLevel:   logline.LevelInfo,
			wantContent: `"GET / HTTP/1.1" 200`,
		},
		{
			name:          "logfmt",
			raw:           `time=2024-01-15T10:30:00Z level=warn msg="request handled" service=api`,
			wantTS:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			wantType:      logline.Text,
			wantLevel:     logline.LevelWarn,
			wantComponent: "api",
			wantContent:   "request handled",
		},
		{
			name:          "bare json fallback",
			raw:           `{"level":"warn","msg":"hi","service":"auth"}`,
			wantType:      logline.JSON,
			wantLevel:     logline.LevelWarn,
			wantComponent: "auth",
			wantContent:   `{"level":"warn","msg":"hi","service":"auth"}`,
		},
		{
			name:        "unstructured text fallback",
			raw:         "!!! totally unstructured noise",
			wantType:    logline.Text,
			wantLevel:   logline.LevelUnknown,
			wantContent: "!!! totally unstructured noise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := registry.ParseLine(tt.raw, nil)
			if line.Raw != tt.raw {
				t.Errorf("Raw = %q, want original input preserved", line.Raw)
			}
			if !line.Timestamp.Equal(tt.wantTS) {
				t.Errorf("Timestamp = %v, want %v", line.Timestamp, tt.wantTS)
			}
			if line.ContentType != tt.wantType {
				t.Errorf("ContentType = %v, want %v", line.ContentType, tt.wantType)
			}
			if line.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", line.Level, tt.wantLevel)
			}
			if line.Component != tt.wantComponent {
				t.Errorf("Component = %q, want %q", line.Component, tt.wantComponent)
			}
			if tt.wantContent != "" && line.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", line.Content, tt.wantContent)
			}
		})
	}
}

func TestParseLine_NeverFails(t *testing.T) {
	registry := NewRegistry()
	inputs := []string{
		"",
		"   ",
		"{not json",
		`{"unterminated": `,
		"\x00\x01\x02 binary-ish",
		"2024-99-99T99:99:99Z impossible date",
	}
	for _, raw := range inputs {
		line := registry.ParseLine(raw, nil)
		if line.Raw != raw {
			t.Errorf("ParseLine(%q).Raw = %q, want input preserved", raw, line.Raw)
		}
	}
}

func TestDetect(t *testing.T) {
	registry := NewRegistry()

	isoLines := make([]string, 20)
	for i := range isoLines {
		isoLines[i] = fmt.Sprintf("2024-01-15T10:30:%02dZ request %d handled", i, i)
	}

	t.Run("uniform iso sample", func(t *testing.T) {
		p := registry.Detect(isoLines, 0)
		if p == nil || p.Name() != "iso" {
			t.Fatalf("Detect = %v, want iso", p)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		first := registry.Detect(isoLines, 0)
		for i := 0; i < 5; i++ {
			if got := registry.Detect(isoLines, 0); got != first {
				t.Fatalf("Detect not deterministic: %v vs %v", got, first)
			}
		}
	})

	t.Run("exactly half is not a match", func(t *testing.T) {
		sample := make([]string, 0, 20)
		sample = append(sample, isoLines[:10]...)
		for i := 0; i < 10; i++ {
			sample = append(sample, fmt.Sprintf("!!! noise %d", i))
		}
		if p := registry.Detect(sample, 0); p != nil {
			t.Fatalf("Detect = %v, want nil for a 50%% sample", p.Name())
		}
	})

	t.Run("raised threshold rejects a merely dominant format", func(t *testing.T) {
		sample := make([]string, 0, 20)
		sample = append(sample, isoLines[:12]...)
		for i := 0; i < 8; i++ {
			sample = append(sample, fmt.Sprintf("!!! noise %d", i))
		}
		if p := registry.Detect(sample, 0.9); p != nil {
			t.Fatalf("Detect = %v, want nil at a 90%% threshold for a 60%% sample", p.Name())
		}
		if p := registry.Detect(sample, 0.5); p == nil || p.Name() != "iso" {
			t.Fatalf("Detect = %v, want iso at the default threshold", p)
		}
	})

	t.Run("whole sample counts", func(t *testing.T) {
		// Only 8 of the first 20 lines are ISO; the tail pushes the overall
		// rate past half. Detect must score every line it is handed.
		sample := make([]string, 0, 30)
		sample = append(sample, isoLines[:8]...)
		for i := 0; i < 12; i++ {
			sample = append(sample, fmt.Sprintf("!!! noise %d", i))
		}
		sample = append(sample, isoLines[8:18]...)
		if p := registry.Detect(sample, 0); p == nil || p.Name() != "iso" {
			t.Fatalf("Detect = %v, want iso over the full 30-line sample", p)
		}
	})

	t.Run("empty sample", func(t *testing.T) {
		if p := registry.Detect(nil, 0); p != nil {
			t.Fatalf("Detect = %v, want nil", p.Name())
		}
	})
}

func TestLookup(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"docker", "kubernetes", "journalctl", "python", "apache", "syslog", "logfmt", "iso"} {
		if p := registry.Lookup(name); p == nil || p.Name() != name {
			t.Errorf("Lookup(%q) = %v", name, p)
		}
	}
	if p := registry.Lookup("nope"); p != nil {
		t.Errorf("Lookup(nope) = %v, want nil", p.Name())
	}
}

func TestForcedParserSkipsOthers(t *testing.T) {
	registry := NewRegistry()
	raw := "Jan 15 10:30:00 myhost sshd[123]: Accepted"

	line := registry.ParseLine(raw, registry.Lookup("iso"))
	if line.HasTimestamp() {
		t.Fatalf("forced iso parser should not recognize a syslog line, got ts %v", line.Timestamp)
	}
	if line.Component != "" {
		t.Fatalf("Component = %q, want empty on fallback", line.Component)
	}
}

func TestExtractLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want logline.Level
	}{
		{"[ERROR] db down", logline.LevelError},
		{"level=warn disk filling", logline.LevelWarn},
		{"INFO starting up", logline.LevelInfo},
		{"connection refused by peer", logline.LevelError},
		{"deprecated option used", logline.LevelWarn},
		{"all quiet", logline.LevelUnknown},
	}
	for _, tt := range tests {
		if got := ExtractLevel(tt.raw, nil); got != tt.want {
			t.Errorf("ExtractLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
