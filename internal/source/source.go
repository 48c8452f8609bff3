package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to lines cut short by the size guard.
const TruncationMarker = " [truncated]"

const readChunkBytes = 64 * 1024

// Line is one raw line of input with the label of the source it came from.
type Line struct {
	Text   string
	Origin string
}

// LineSource is an ordered, possibly asynchronous sequence of raw lines.
// Read delivers each line to emit in arrival order and returns when the
// source is exhausted, emit fails, or the context is cancelled. The origin
// label identifies the source in errors and serves as a component fallback.
type LineSource interface {
	Origin() string
	Read(ctx context.Context, emit func(text string) error) error
}

// SourceError wraps a failure of one source so the caller can identify the
// offending source unambiguously. It is fatal for that source only.
type SourceError struct {
	Origin string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Origin, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// splitter turns an incoming byte stream into complete lines, applying the
// size guard and UTF-8 substitution. It is stateful so tailing can feed it
// incrementally as a file grows.
type splitter struct {
	maxBytes   int
	pending    []byte
	dropping   bool // inside an oversized line, discarding until newline
	sawInvalid bool // at least one invalid byte sequence was substituted
}

func newSplitter(maxBytes int) *splitter {
	return &splitter{maxBytes: maxBytes}
}

// push feeds bytes into the splitter, emitting each completed line.
func (s *splitter) push(data []byte, emit func(text string) error) error {
	s.pending = append(s.pending, data...)
	for {
		idx := bytes.IndexByte(s.pending, '\n')
		if idx < 0 {
			break
		}
		line := s.pending[:idx]
		s.pending = s.pending[idx+1:]
		if s.dropping {
			s.dropping = false
			continue
		}
		if s.maxBytes > 0 && len(line) > s.maxBytes {
			line = line[:s.maxBytes]
			if err := emit(s.sanitize(line, true)); err != nil {
				return err
			}
			continue
		}
		if err := emit(s.sanitize(line, false)); err != nil {
			return err
		}
	}
	if s.dropping {
		s.pending = s.pending[:0]
		return nil
	}
	if s.maxBytes > 0 && len(s.pending) > s.maxBytes {
		line := s.pending[:s.maxBytes]
		s.pending = s.pending[:0]
		s.dropping = true
		return emit(s.sanitize(line, true))
	}
	return nil
}

// flush emits any trailing partial line at end of stream.
func (s *splitter) flush(emit func(text string) error) error {
	if s.dropping || len(s.pending) == 0 {
		return nil
	}
	line := s.pending
	s.pending = nil
	return emit(s.sanitize(line, false))
}

func (s *splitter) sanitize(line []byte, truncated bool) string {
	text := strings.TrimSuffix(string(line), "\r")
	if !utf8.ValidString(text) {
		s.sawInvalid = true
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	if truncated {
		text += TruncationMarker
	}
	return text
}

// readAll streams r through the splitter until EOF, checking ctx between
// chunks.
func readAll(ctx context.Context, r io.Reader, s *splitter, emit func(text string) error) error {
	buf := make([]byte, readChunkBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if perr := s.push(buf[:n], emit); perr != nil {
				return perr
			}
		}
		if err == io.EOF {
			return s.flush(emit)
		}
		if err != nil {
			return err
		}
	}
}

// FileSource reads a file to completion.
type FileSource struct {
	Path         string
	MaxLineBytes int

	sawInvalid bool
}

func (f *FileSource) Origin() string {
	return f.Path
}

// Size returns the current byte size of the file.
func (f *FileSource) Size() (int64, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, &SourceError{Origin: f.Path, Err: err}
	}
	return info.Size(), nil
}

func (f *FileSource) Read(ctx context.Context, emit func(text string) error) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return &SourceError{Origin: f.Path, Err: err}
	}
	defer file.Close()

	s := newSplitter(f.MaxLineBytes)
	if err := readAll(ctx, file, s, emit); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &SourceError{Origin: f.Path, Err: err}
	}
	f.sawInvalid = s.sawInvalid
	return nil
}

// SawInvalidBytes reports whether any byte sequence needed substitution.
func (f *FileSource) SawInvalidBytes() bool {
	return f.sawInvalid
}

// StdinSource reads standard input until the pipe closes.
type StdinSource struct {
	MaxLineBytes int
	// Reader overrides os.Stdin, for tests.
	Reader io.Reader
}

func (s *StdinSource) Origin() string {
	return "stdin"
}

func (s *StdinSource) Read(ctx context.Context, emit func(text string) error) error {
	in := s.Reader
	if in == nil {
		in = os.Stdin
	}
	sp := newSplitter(s.MaxLineBytes)
	if err := readAll(ctx, in, sp, emit); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &SourceError{Origin: s.Origin(), Err: err}
	}
	return nil
}
