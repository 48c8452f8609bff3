package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/loupedev/loupe/internal/anomaly"
	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/filter"
	"github.com/loupedev/loupe/internal/logline"
	"github.com/loupedev/loupe/internal/parse"
	"github.com/loupedev/loupe/internal/search"
	"github.com/loupedev/loupe/internal/source"
	"github.com/loupedev/loupe/internal/store"
	"github.com/loupedev/loupe/internal/template"
)

// Core wires the store, reader and analysis engines together and exposes
// the operations a frontend consumes. All reads go through immutable store
// snapshots, so analysis never observes a partially ingested line.
type Core struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *store.Store
	registry *parse.Registry
	reader   *source.Reader
	filters  *filter.Engine

	mu       sync.Mutex
	baseline *anomaly.Baseline
	result   *anomaly.Result
}

// New builds a core with an empty store and no active filters.
func New(cfg config.Config, log zerolog.Logger) *Core {
	st := &store.Store{}
	registry := parse.NewRegistry()
	return &Core{
		cfg:      cfg,
		log:      log,
		store:    st,
		registry: registry,
		reader:   source.NewReader(st, registry, cfg, log),
		filters:  &filter.Engine{},
	}
}

// Reader returns the ingestion reader driving this core's store.
func (c *Core) Reader() *source.Reader {
	return c.reader
}

// Filters returns the active filter engine.
func (c *Core) Filters() *filter.Engine {
	return c.filters
}

// Len returns the number of ingested lines.
func (c *Core) Len() int {
	return c.store.Len()
}

// Line returns the line at snapshot index i.
func (c *Core) Line(i int) (logline.LogLine, bool) {
	return c.store.Line(i)
}

// Snapshot returns the current immutable line snapshot.
func (c *Core) Snapshot() []logline.LogLine {
	return c.store.Snapshot()
}

// Progress reports how much of the input has been ingested so far.
func (c *Core) Progress() store.Progress {
	return c.store.Progress()
}

// ApplyFilters runs the active filter configuration over the current
// snapshot and returns the passing indices. When the anomaly-only view is
// on, lines without a nonzero anomaly score are dropped as well.
func (c *Core) ApplyFilters() []int {
	lines := c.store.Snapshot()
	indices := c.filters.Apply(lines)

	cfg := c.filters.Config()
	if !cfg.AnomalyOnly {
		return indices
	}
	result := c.AnomalyResult()
	if result == nil {
		return indices
	}
	kept := make([]int, 0, len(indices))
	for _, i := range indices {
		if result.Score(i) > 0 {
			kept = append(kept, i)
		}
	}
	return kept
}

// CheckLine evaluates one line against the active filter configuration.
// This is the incremental path for newly tailed lines and agrees with
// ApplyFilters.
func (c *Core) CheckLine(line logline.LogLine) bool {
	return c.filters.Check(line)
}

// FindMatches searches the current snapshot and returns a navigation cursor
// over the matches.
func (c *Core) FindMatches(q search.Query) (*search.Cursor, error) {
	matches, err := search.FindMatches(c.store.Snapshot(), q)
	if err != nil {
		return nil, err
	}
	return search.NewCursor(matches), nil
}

// Templates groups the currently filtered lines by structural template,
// most frequent first.
func (c *Core) Templates() []*template.Group {
	return template.GroupLines(c.filteredLines())
}

// Fields computes the JSON field value distribution of the currently
// filtered lines.
func (c *Core) Fields() []*template.FieldGroup {
	return template.FieldDistribution(c.filteredLines())
}

func (c *Core) filteredLines() []logline.LogLine {
	lines := c.store.Snapshot()
	indices := c.filters.Apply(lines)
	if len(indices) == len(lines) {
		return lines
	}
	selected := make([]logline.LogLine, len(indices))
	for i, idx := range indices {
		selected[i] = lines[idx]
	}
	return selected
}

// SetBaseline installs the reference line set anomaly scores compare
// against and computes scores for the current snapshot.
func (c *Core) SetBaseline(lines []logline.LogLine) {
	base := anomaly.BuildBaseline(lines)
	c.mu.Lock()
	c.baseline = base
	c.mu.Unlock()
	c.Rescore()
}

// Rescore recomputes anomaly scores against the current snapshot. It is a
// no-op without a baseline.
func (c *Core) Rescore() {
	c.mu.Lock()
	base := c.baseline
	c.mu.Unlock()
	if base == nil {
		return
	}
	result := anomaly.Detect(c.store.Snapshot(), base, c.cfg.SpikeMultiplier)
	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
}

// AnomalyResult returns the latest anomaly comparison, or nil when no
// baseline has been supplied.
func (c *Core) AnomalyResult() *anomaly.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
