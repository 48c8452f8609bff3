package source

import (
	"sort"
	"time"

	"github.com/loupedev/loupe/internal/logline"
)

// mergeByTimestamp interleaves per-file line sets into one sequence ordered
// by parsed timestamp. Lines without a timestamp inherit the last timestamp
// seen in their file, so they stay behind the line they followed. The sort
// is stable: ties keep source declaration order, and so do lines arriving
// before any timestamp at all.
func mergeByTimestamp(perSource [][]logline.LogLine) []logline.LogLine {
	total := 0
	for _, lines := range perSource {
		total += len(lines)
	}

	type keyed struct {
		line logline.LogLine
		ts   time.Time
	}
	combined := make([]keyed, 0, total)
	for _, lines := range perSource {
		var carry time.Time
		for _, line := range lines {
			if line.HasTimestamp() {
				carry = line.Timestamp
			}
			combined = append(combined, keyed{line: line, ts: carry})
		}
	}

	sort.SliceStable(combined, func(a, b int) bool {
		return combined[a].ts.Before(combined[b].ts)
	})

	merged := make([]logline.LogLine, total)
	for i, k := range combined {
		merged[i] = k.line
	}
	return merged
}
