// Package export writes selections of log lines back out as plain text.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/loupedev/loupe/internal/logline"
)

// Write emits the raw text of the selected lines, one per line, in the
// order given by indices. Indices outside the slice are skipped.
func Write(w io.Writer, lines []logline.LogLine, indices []int) error {
	bw := bufio.NewWriter(w)
	for _, i := range indices {
		if i < 0 || i >= len(lines) {
			continue
		}
		if _, err := bw.WriteString(lines[i].Raw); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
	}
	return bw.Flush()
}

// ToFile writes the selected lines to a new file at path, failing if the
// file already exists.
func ToFile(path string, lines []logline.LogLine, indices []int) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Write(file, lines, indices); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
