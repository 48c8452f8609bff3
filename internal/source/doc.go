// Package source produces parsed log lines from files, pipes, live tails,
// and remote adapters, and feeds them into the line store.
//
// # Temporal modes
//
// A source loads in one of three ways: snapshot (read to completion, with
// multi-file merging by timestamp), tail (watch for new content after the
// initial load, with pause/resume), or chunked background load (large inputs
// publish a bounded prefix synchronously and the remainder in batches on a
// background goroutine).
//
// Exactly one producer path appends to the store for a given source at any
// time. The Reader consolidates the load/tail/pause lifecycle into a single
// state machine (Idle, Loading, Tailing, Paused, Stopped) with one internal
// buffer for paused delivery. Pause defers delivery only: a paused tail
// keeps reading into the buffer so the upstream source never blocks.
//
// # Degradation
//
// Bytes that are not valid UTF-8 are replaced with the Unicode replacement
// character and reported once per source. Lines longer than the configured
// size guard are truncated with a marker. Neither condition ever aborts a
// source; a missing file or broken pipe aborts only its own source, never
// siblings in a merge.
//
// # Standard input
//
// When log data arrives on standard input there is no second channel for
// interactive control: the pipe carries data only. Pause and Resume remain
// available on the Reader API, but a stdin follow runs uninterrupted until
// the pipe closes or the context is cancelled. This is a documented
// limitation rather than a silent failure.
package source
