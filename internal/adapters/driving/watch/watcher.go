// Package watch re-ingests course documents as they appear in a folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
// Editors often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// ErrNotDirectory is returned when the watched path is not a directory.
var ErrNotDirectory = errors.New("watch: path is not a directory")

// Watcher ingests supported files created or written in a directory.
type Watcher struct {
	ingest     driving.IngestService
	dir        string
	extensions []string
	debounce   time.Duration

	// onReport, when set, receives the result of every ingestion.
	onReport func(path string, report *domain.IngestReport, err error)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReportFunc registers a callback for ingestion results.
func WithReportFunc(fn func(path string, report *domain.IngestReport, err error)) Option {
	return func(w *Watcher) {
		w.onReport = fn
	}
}

// New creates a watcher for dir that accepts files with the given
// extensions (lower case, with the leading dot).
func New(ingest driving.IngestService, dir string, extensions []string, opts ...Option) *Watcher {
	w := &Watcher{
		ingest:     ingest,
		dir:        dir,
		extensions: extensions,
		debounce:   DefaultDebounce,
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for course documents", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// handleFsEvent returns the path to ingest for a create or write event on a
// supported, visible, regular file.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(w.relative(event.Name)) {
		return "", false
	}
	if !slices.Contains(w.extensions, strings.ToLower(filepath.Ext(event.Name))) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	report, err := w.ingest.IngestFile(ctx, path)
	switch {
	case err != nil:
		logger.Warn("Ingest %s: %v", path, err)
	case report.Courses > 0:
		logger.Info("Ingested %s: %d chunks", filepath.Base(path), report.Chunks)
	default:
		logger.Debug("Ingest %s: nothing new", path)
	}
	if w.onReport != nil {
		w.onReport(path, report, err)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// relative returns path relative to the watched directory, so a hidden
// ancestor of the directory itself does not hide its files.
func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
