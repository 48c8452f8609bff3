package filter

import (
	"sync"

	"github.com/loupedev/loupe/internal/logline"
)

// Config is the complete active filter configuration. Suspend captures it
// and Resume restores it atomically, preserving each rule's enabled state.
type Config struct {
	Rules       []*Rule
	MinLevel    logline.Level // additional threshold applied on top of the rules
	AnomalyOnly bool          // restrict the view to lines with a nonzero anomaly score
}

// Engine owns the active filter configuration and applies it to snapshots.
// Rules themselves are owned by the caller; the engine only reads them.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
}

// SetRules replaces the active rule list.
func (e *Engine) SetRules(rules []*Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Rules = rules
}

// AddRule appends a rule to the active configuration.
func (e *Engine) AddRule(r *Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Rules = append(e.cfg.Rules, r)
}

// SetMinLevel sets the engine-wide level threshold. LevelUnknown disables it.
func (e *Engine) SetMinLevel(min logline.Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MinLevel = min
}

// SetAnomalyOnly toggles the anomaly-only view flag.
func (e *Engine) SetAnomalyOnly(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.AnomalyOnly = v
}

// Config returns a copy of the active configuration. The rule slice is
// copied; the rules are shared.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.clone()
}

// Suspend captures the active configuration and clears the engine, leaving
// every line visible. The returned snapshot restores via Resume.
func (e *Engine) Suspend() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	captured := e.cfg.clone()
	e.cfg = Config{}
	return captured
}

// Resume atomically restores a previously captured configuration.
func (e *Engine) Resume(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg.clone()
}

// Apply runs the active configuration over a line snapshot.
func (e *Engine) Apply(lines []logline.LogLine) []int {
	cfg := e.Config()
	indices := Apply(lines, cfg.Rules)
	if cfg.MinLevel == logline.LevelUnknown {
		return indices
	}
	kept := indices[:0]
	for _, i := range indices {
		if lines[i].Level != logline.LevelUnknown && lines[i].Level >= cfg.MinLevel {
			kept = append(kept, i)
		}
	}
	return kept
}

// Check evaluates a single line against the active configuration.
func (e *Engine) Check(line logline.LogLine) bool {
	cfg := e.Config()
	if !Check(line, cfg.Rules) {
		return false
	}
	if cfg.MinLevel != logline.LevelUnknown {
		return line.Level != logline.LevelUnknown && line.Level >= cfg.MinLevel
	}
	return true
}

// FailedRules returns the rules whose patterns failed to compile, so the
// caller can surface them.
func (e *Engine) FailedRules() []*Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var failed []*Rule
	for _, r := range e.cfg.Rules {
		if r != nil && r.err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

func (c Config) clone() Config {
	dup := c
	if len(c.Rules) > 0 {
		dup.Rules = make([]*Rule, len(c.Rules))
		copy(dup.Rules, c.Rules)
	}
	return dup
}
