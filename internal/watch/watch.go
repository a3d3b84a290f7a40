// Package watch runs the summarization workflow for every supported file
// dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
)

const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Handler processes one source. Returning an error moves the file to failed/.
type Handler func(ctx context.Context, src ingest.Source) error

// Watcher watches a directory and hands new files to a Handler one at a time.
type Watcher struct {
	dir    string
	handle Handler
	logger *slog.Logger
	fsw    *fsnotify.Watcher
	settle time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a file's size must stay unchanged before it is
// considered completely written.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// New creates the inbox (and its processed/ and failed/ subdirectories) and
// starts watching it.
func New(dir string, handle Handler, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range []string{dir, filepath.Join(dir, processedDirName), filepath.Join(dir, failedDirName)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("watch: create %s: %w", d, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", dir, err)
	}

	w := &Watcher{
		dir:    dir,
		handle: handle,
		logger: logger,
		fsw:    fsw,
		settle: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes files already in the inbox, then new ones as they appear,
// until ctx is cancelled. Files are handled sequentially.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching inbox", "dir", w.dir)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("watch: read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			w.process(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: events channel closed")
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.process(ctx, ev.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		// Renamed away or a directory.
		return
	}

	src, err := ingest.SourceFromPath(path)
	if err != nil {
		w.logger.Debug("ignoring unsupported file", "file", name)
		return
	}

	if err := w.waitStable(ctx, path); err != nil {
		return
	}

	w.logger.Info("processing", "file", name, "kind", src.Kind)
	start := time.Now()

	dest := processedDirName
	if err := w.handle(ctx, src); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("failed to process file", "file", name, "error", err)
		dest = failedDirName
	} else {
		w.logger.Info("processed", "file", name, "elapsed", time.Since(start).Round(time.Millisecond))
	}

	if moved, err := moveInto(path, filepath.Join(w.dir, dest)); err != nil {
		w.logger.Error("failed to move file", "file", name, "error", err)
	} else {
		w.logger.Debug("moved", "file", moved)
	}
}

// waitStable returns once the file size stops changing for w.settle.
func (w *Watcher) waitStable(ctx context.Context, path string) error {
	if w.settle <= 0 {
		return nil
	}
	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settle):
		}
	}
}

// moveInto renames path into dir, adding a _N suffix on collision.
func moveInto(path, dir string) (string, error) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	dest := filepath.Join(dir, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			break
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}
