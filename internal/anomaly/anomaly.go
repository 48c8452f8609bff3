// Package anomaly scores a current template histogram against a baseline
// one. The engine holds no session state: Detect is a pure function of the
// two histograms and is recomputed whenever either side changes.
//
// Scores take exactly three values: 1.0 for a template absent from the
// baseline (novel), 0.5 for a frequency spike beyond the configured
// multiplier, and 0.0 otherwise. Counts compare raw, not normalized by
// sample size; the multiplier is the one tuning knob and comes from
// configuration.
package anomaly

import (
	"sort"

	"github.com/loupedev/loupe/internal/logline"
	"github.com/loupedev/loupe/internal/template"
)

// DefaultSpikeMultiplier flags templates whose current count exceeds five
// times their baseline count.
const DefaultSpikeMultiplier = 5

// Baseline is an immutable template histogram computed once from a fully
// drained reference line set.
type Baseline struct {
	counts map[string]int
	total  int
}

// BuildBaseline computes the template histogram of a reference snapshot.
func BuildBaseline(lines []logline.LogLine) *Baseline {
	counts := make(map[string]int)
	for _, line := range lines {
		counts[template.For(line)]++
	}
	return &Baseline{counts: counts, total: len(lines)}
}

// Count returns the baseline count for a template.
func (b *Baseline) Count(tpl string) (int, bool) {
	n, ok := b.counts[tpl]
	return n, ok
}

// Total returns the number of lines the baseline was built from.
func (b *Baseline) Total() int {
	return b.total
}

// Spike records a template whose frequency jumped past the multiplier.
type Spike struct {
	Group         *template.Group
	BaselineCount int
	CurrentCount  int
}

// Result is the outcome of one baseline comparison.
type Result struct {
	Scores       map[int]float64 // snapshot index -> anomaly score, zero scores omitted
	Novel        []*template.Group
	Spikes       []Spike
	Disappeared  []string // baseline templates absent from the current set
	AnomalyCount int      // lines with a nonzero score
}

// Score returns the anomaly score for a line index.
func (r *Result) Score(index int) float64 {
	return r.Scores[index]
}

// Detect compares the current line snapshot against the baseline. A line's
// score equals its template's score. multiplier <= 0 falls back to the
// default.
func Detect(lines []logline.LogLine, base *Baseline, multiplier int) *Result {
	if multiplier <= 0 {
		multiplier = DefaultSpikeMultiplier
	}

	result := &Result{Scores: make(map[int]float64)}
	current := template.GroupLines(lines)
	seen := make(map[string]bool, len(current))

	for _, group := range current {
		seen[group.Template] = true

		baseCount, known := base.Count(group.Template)
		switch {
		case !known:
			result.Novel = append(result.Novel, group)
			for _, idx := range group.Lines {
				result.Scores[idx] = 1.0
			}
		case group.Count > multiplier*baseCount:
			result.Spikes = append(result.Spikes, Spike{
				Group:         group,
				BaselineCount: baseCount,
				CurrentCount:  group.Count,
			})
			for _, idx := range group.Lines {
				result.Scores[idx] = 0.5
			}
		}
	}

	for tpl := range base.counts {
		if !seen[tpl] {
			result.Disappeared = append(result.Disappeared, tpl)
		}
	}
	sort.Strings(result.Disappeared)

	result.AnomalyCount = len(result.Scores)
	return result
}
