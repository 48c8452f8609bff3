package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loupedev/loupe/internal/logline"
)

func sampleLines() []logline.LogLine {
	return []logline.LogLine{
		{Raw: "first"},
		{Raw: "second"},
		{Raw: "third"},
	}
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, sampleLines(), []int{2, 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if sb.String() != "third\nfirst\n" {
		t.Fatalf("output = %q, want selection in index order", sb.String())
	}
}

func TestWrite_SkipsOutOfRange(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, sampleLines(), []int{-1, 1, 99}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if sb.String() != "second\n" {
		t.Fatalf("output = %q, want only the valid index", sb.String())
	}
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := ToFile(path, sampleLines(), []int{0, 1}); err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("file = %q", data)
	}

	if err := ToFile(path, sampleLines(), nil); err == nil {
		t.Fatal("overwriting an existing file did not error")
	}
}
