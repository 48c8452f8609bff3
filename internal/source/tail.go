package source

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loupedev/loupe/internal/parse"
)

// tailPollInterval backs up fsnotify so pipes, network filesystems, and
// missed events still deliver promptly.
const tailPollInterval = 200 * time.Millisecond

// TailFile loads the file's current content, then keeps watching for
// appended lines until the context is cancelled or Stop is called. New
// lines are delivered through the pause buffer while paused. Truncation of
// the file (log rotation) restarts reading from the beginning.
func (r *Reader) TailFile(ctx context.Context, path string) error {
	src := &FileSource{Path: path, MaxLineBytes: r.cfg.MaxLineBytes}

	r.setState(StateLoading)
	lines, err := r.readSnapshot(ctx, src)
	if err != nil {
		r.setState(StateStopped)
		return err
	}
	r.store.Append(lines...)

	file, err := os.Open(path)
	if err != nil {
		r.setState(StateStopped)
		return &SourceError{Origin: path, Err: err}
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		r.setState(StateStopped)
		return &SourceError{Origin: path, Err: err}
	}

	// fsnotify is best effort; the poll ticker alone is sufficient.
	var events <-chan fsnotify.Event
	watcher, werr := fsnotify.NewWatcher()
	if werr == nil {
		if aerr := watcher.Add(path); aerr == nil {
			events = watcher.Events
		} else {
			watcher.Close()
			watcher = nil
		}
	} else {
		r.log.Debug().Err(werr).Msg("fsnotify unavailable, polling only")
		watcher = nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.state = StateTailing
	r.mu.Unlock()

	parser := r.forcedParser()
	t := &tailFile{
		reader:  r,
		path:    path,
		file:    file,
		offset:  offset,
		split:   newSplitter(r.cfg.MaxLineBytes),
		parser:  parser,
		watcher: watcher,
		events:  events,
	}

	r.wg.Add(1)
	go t.run(ctx)
	return nil
}

type tailFile struct {
	reader  *Reader
	path    string
	file    *os.File
	offset  int64
	split   *splitter
	parser  parse.Parser
	watcher *fsnotify.Watcher
	events  <-chan fsnotify.Event
}

func (t *tailFile) run(ctx context.Context) {
	defer t.reader.wg.Done()
	defer func() {
		if t.file != nil {
			t.file.Close()
		}
		if t.watcher != nil {
			t.watcher.Close()
		}
	}()

	ticker := time.NewTicker(tailPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.reader.finish(StateStopped)
			return
		case ev, ok := <-t.events:
			if !ok {
				t.events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.drain()
			}
		case <-ticker.C:
			t.drain()
		}
	}
}

// drain reads newly appended bytes and delivers complete lines. A file that
// shrank was rotated or truncated; reading restarts from the beginning.
func (t *tailFile) drain() {
	info, err := os.Stat(t.path)
	if err != nil {
		// Rotated away; keep the old handle and wait for the path to return.
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		t.reader.log.Warn().Err(err).Str("source", t.path).Msg("stat failed during tail")
		return
	}
	if info.Size() < t.offset {
		// Rotation or truncation; the old handle may point at a stale inode.
		t.reader.log.Info().Str("source", t.path).Msg("file truncated, restarting from beginning")
		t.reopen()
		t.offset = 0
		t.split = newSplitter(t.reader.cfg.MaxLineBytes)
	}
	if t.file == nil {
		t.reopen()
		if t.file == nil {
			return
		}
	}

	buf := make([]byte, readChunkBytes)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			_ = t.split.push(buf[:n], func(text string) error {
				t.reader.deliver(t.reader.parseLine(text, t.parser, t.path))
				return nil
			})
		}
		if err != nil {
			return
		}
	}
}

func (t *tailFile) reopen() {
	if t.file != nil {
		t.file.Close()
	}
	file, err := os.Open(t.path)
	if err != nil {
		t.reader.log.Warn().Err(err).Str("source", t.path).Msg("reopen failed during tail")
		t.file = nil
		return
	}
	t.file = file
}
