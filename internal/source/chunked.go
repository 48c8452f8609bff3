package source

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/loupedev/loupe/internal/logline"
	"github.com/loupedev/loupe/internal/parse"
)

// loadChunked ingests a large file in two phases: a bounded prefix parsed
// synchronously so consumers get an immediate view, then the remainder in
// bounded batches on a background goroutine. Published lines are never
// reordered or rewritten by later batches; the store's count is the
// monotonically increasing progress indicator.
func (r *Reader) loadChunked(ctx context.Context, src *FileSource) error {
	file, err := os.Open(src.Path)
	if err != nil {
		return &SourceError{Origin: src.Path, Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.state = StateLoading
	r.mu.Unlock()

	split := newSplitter(r.cfg.MaxLineBytes)
	reader := &chunkReader{file: file, split: split}

	prefix, eof, err := reader.nextBatch(ctx, r.cfg.InitialChunkLines)
	if err != nil {
		file.Close()
		cancel()
		return &SourceError{Origin: src.Path, Err: err}
	}

	parser := r.detectParser(prefix)
	r.appendBatch(prefix, parser, src.Origin())

	if eof {
		file.Close()
		cancel()
		r.store.SetComplete(true)
		r.setState(StateIdle)
		return nil
	}

	r.log.Debug().Str("source", src.Path).Int("prefix_lines", len(prefix)).Msg("continuing load in background")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer file.Close()
		defer cancel()

		for {
			if ctx.Err() != nil {
				r.finish(StateStopped)
				return
			}
			batch, done, err := reader.nextBatch(ctx, r.cfg.ChunkBatchLines)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					r.log.Error().Err(err).Str("source", src.Path).Msg("background load failed")
				}
				r.finish(StateStopped)
				return
			}
			r.appendBatch(batch, parser, src.Origin())
			r.log.Debug().Str("source", src.Path).Int("loaded", r.store.Len()).Msg("batch published")
			if done {
				r.store.SetComplete(true)
				r.finish(StateIdle)
				return
			}
		}
	}()
	return nil
}

func (r *Reader) appendBatch(raw []string, parser parse.Parser, origin string) {
	if len(raw) == 0 {
		return
	}
	lines := make([]logline.LogLine, len(raw))
	for i, text := range raw {
		lines[i] = r.parseLine(text, parser, origin)
	}
	r.store.Append(lines...)
}

// chunkReader pulls bounded batches of raw lines off an open file.
type chunkReader struct {
	file  *os.File
	split *splitter
	queue []string
}

// nextBatch returns up to limit lines and whether the file is exhausted.
func (c *chunkReader) nextBatch(ctx context.Context, limit int) ([]string, bool, error) {
	buf := make([]byte, readChunkBytes)
	for len(c.queue) < limit {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		n, err := c.file.Read(buf)
		if n > 0 {
			pushErr := c.split.push(buf[:n], func(text string) error {
				c.queue = append(c.queue, text)
				return nil
			})
			if pushErr != nil {
				return nil, false, pushErr
			}
		}
		if err == io.EOF {
			if ferr := c.split.flush(func(text string) error {
				c.queue = append(c.queue, text)
				return nil
			}); ferr != nil {
				return nil, false, ferr
			}
			batch := c.queue
			if len(batch) > limit {
				c.queue = batch[limit:]
				return batch[:limit], false, nil
			}
			c.queue = nil
			return batch, true, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
	batch := c.queue[:limit]
	c.queue = c.queue[limit:]
	return batch, false, nil
}
