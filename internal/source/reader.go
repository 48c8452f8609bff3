package source

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/logline"
	"github.com/loupedev/loupe/internal/parse"
	"github.com/loupedev/loupe/internal/store"
)

// State is the reader lifecycle phase.
type State int8

const (
	StateIdle State = iota
	StateLoading
	StateTailing
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateTailing:
		return "tailing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Reader is the single producer for a store. It owns the load/tail
// lifecycle and the pause buffer; analysis engines never see lines that are
// not fully appended.
type Reader struct {
	store    *store.Store
	registry *parse.Registry
	cfg      config.Config
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	buffer []logline.LogLine // lines arriving while paused
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewReader builds a reader that appends into st.
func NewReader(st *store.Store, registry *parse.Registry, cfg config.Config, log zerolog.Logger) *Reader {
	return &Reader{store: st, registry: registry, cfg: cfg, log: log}
}

// State returns the current lifecycle state.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reader) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// forcedParser resolves the configured parser override, nil meaning detect.
func (r *Reader) forcedParser() parse.Parser {
	if r.cfg.Parser == "" {
		return nil
	}
	return r.registry.Lookup(r.cfg.Parser)
}

// detectParser runs auto-detection over a sample unless a parser override is
// configured. The configured sample size and match-rate threshold both apply
// here; zero values mean the package defaults.
func (r *Reader) detectParser(sample []string) parse.Parser {
	if p := r.forcedParser(); p != nil {
		return p
	}
	if n := r.cfg.DetectSampleLines; n > 0 && len(sample) > n {
		sample = sample[:n]
	}
	p := r.registry.Detect(sample, r.cfg.DetectMinRate)
	if p != nil {
		r.log.Debug().Str("parser", p.Name()).Msg("format detected")
	} else {
		r.log.Debug().Msg("no dominant format, parsing per line")
	}
	return p
}

// deliver hands a parsed line to the store, or to the pause buffer while
// paused. Pause defers delivery only; reading continues upstream.
func (r *Reader) deliver(line logline.LogLine) {
	r.mu.Lock()
	if r.state == StatePaused {
		r.buffer = append(r.buffer, line)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.store.Append(line)
}

// Pause buffers subsequent deliveries without blocking the source.
// It only applies while tailing.
func (r *Reader) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateTailing {
		r.state = StatePaused
	}
}

// Resume flushes the pause buffer in arrival order, exactly once, and
// returns to tailing.
func (r *Reader) Resume() {
	r.mu.Lock()
	if r.state != StatePaused {
		r.mu.Unlock()
		return
	}
	buffered := r.buffer
	r.buffer = nil
	r.state = StateTailing
	r.mu.Unlock()

	if len(buffered) > 0 {
		r.store.Append(buffered...)
	}
}

// Buffered returns how many lines are waiting behind a pause.
func (r *Reader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Stop cancels any long-running load or tail and waits for it to tear down.
// No partially-written line remains: delivery is line-atomic.
func (r *Reader) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.state = StateStopped
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Wait blocks until background loading and tailing goroutines finish.
func (r *Reader) Wait() {
	r.wg.Wait()
}

// LoadFiles ingests the given files as a snapshot. A single file above the
// chunk threshold loads a bounded prefix synchronously and the remainder in
// background batches; multiple files are read to completion and merged by
// timestamp. A failing file aborts only itself: its error is reported and
// the remaining files still load.
func (r *Reader) LoadFiles(ctx context.Context, paths []string) error {
	if len(paths) == 1 {
		src := &FileSource{Path: paths[0], MaxLineBytes: r.cfg.MaxLineBytes}
		if size, err := src.Size(); err == nil && size > r.cfg.ChunkThresholdBytes {
			return r.loadChunked(ctx, src)
		}
	}

	r.setState(StateLoading)

	perSource := make([][]logline.LogLine, 0, len(paths))
	var firstErr error
	for _, path := range paths {
		src := &FileSource{Path: path, MaxLineBytes: r.cfg.MaxLineBytes}
		lines, err := r.readSnapshot(ctx, src)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				r.setState(StateStopped)
				return err
			}
			r.log.Error().Err(err).Str("source", path).Msg("source failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		perSource = append(perSource, lines)
	}

	if len(perSource) > 1 {
		r.store.Append(mergeByTimestamp(perSource)...)
	} else if len(perSource) == 1 {
		r.store.Append(perSource[0]...)
	}
	r.store.SetComplete(true)
	r.setState(StateIdle)
	return firstErr
}

// readSnapshot drains one source, detecting its format from the leading
// sample, and returns its parsed lines without publishing them.
func (r *Reader) readSnapshot(ctx context.Context, src LineSource) ([]logline.LogLine, error) {
	var raw []string
	err := src.Read(ctx, func(text string) error {
		raw = append(raw, text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	parser := r.detectParser(raw)
	lines := make([]logline.LogLine, len(raw))
	for i, text := range raw {
		lines[i] = r.parseLine(text, parser, src.Origin())
	}
	r.reportInvalid(src)
	return lines, nil
}

// parseLine parses one raw line, falling back to the origin label when no
// component was detected.
func (r *Reader) parseLine(text string, parser parse.Parser, origin string) logline.LogLine {
	line := r.registry.ParseLine(text, parser)
	if line.Component == "" {
		line.Component = origin
	}
	return line
}

// reportInvalid logs the byte-substitution degradation once per source.
func (r *Reader) reportInvalid(src LineSource) {
	if fs, ok := src.(*FileSource); ok && fs.SawInvalidBytes() {
		r.log.Warn().Str("source", src.Origin()).Msg("invalid bytes replaced with substitution character")
	}
}

// Follow drains a streaming source (pipe, remote adapter), delivering each
// line as it arrives. Streaming input gets no up-front sample, so lines
// parse individually against every registered format unless a parser
// override is configured. Follow returns when the source ends or the
// context is cancelled.
func (r *Reader) Follow(ctx context.Context, src LineSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancel = cancel
	r.state = StateTailing
	r.mu.Unlock()

	parser := r.forcedParser()
	err := src.Read(ctx, func(text string) error {
		r.deliver(r.parseLine(text, parser, src.Origin()))
		return nil
	})

	r.store.SetComplete(err == nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.finish(StateStopped)
		return err
	}
	r.finish(StateIdle)
	return nil
}

// finish transitions out of an active state when a source ends. A pause
// survives the transition so a later Resume still flushes the buffer.
func (r *Reader) finish(next State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StatePaused {
		return
	}
	r.state = next
}
