// Package store holds the append-only sequence of parsed log lines shared by
// every analysis engine. Lines are never rewritten or removed once appended,
// which is what lets filter, search, template, and anomaly computations read
// snapshots without coordinating with in-progress loads.
package store

import (
	"sync"

	"github.com/loupedev/loupe/internal/logline"
)

// Progress describes how much of the input has been ingested so far.
type Progress struct {
	Count    int
	Complete bool
}

// Store is an append-only line sequence. It assigns line numbers itself so
// the 1-based, dense, strictly increasing numbering invariant is enforced in
// exactly one place.
type Store struct {
	mu       sync.RWMutex
	lines    []logline.LogLine
	complete bool
}

// Append adds lines to the end of the store, assigning their numbers.
func (s *Store) Append(lines ...logline.LogLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		line.Number = len(s.lines) + 1
		s.lines = append(s.lines, line)
	}
}

// Len returns the current number of stored lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Line returns the line at index i (0-based) and whether it exists.
func (s *Store) Line(i int) (logline.LogLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.lines) {
		return logline.LogLine{}, false
	}
	return s.lines[i], true
}

// Snapshot returns a fixed-length view of the lines present right now.
// Appends only ever grow the slice, so the returned view stays valid while
// new lines continue to arrive.
func (s *Store) Snapshot() []logline.LogLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lines[:len(s.lines):len(s.lines)]
}

// SetComplete marks ingestion as finished for the current sources.
func (s *Store) SetComplete(complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = complete
}

// Progress returns the current line count and whether loading has finished.
func (s *Store) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Progress{Count: len(s.lines), Complete: s.complete}
}
