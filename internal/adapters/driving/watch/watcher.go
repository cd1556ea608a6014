// Package watch re-ingests documents when files under the watched paths change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change before re-ingesting.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watch: watcher is closed")

// ReportFunc receives the outcome of every re-ingest.
type ReportFunc func(report *domain.IngestReport, err error)

// Watcher rebuilds the corpus from its paths whenever a file beneath them changes.
// The flat index has no delete, so each rebuild starts from an empty corpus.
type Watcher struct {
	ingest   driving.IngestService
	paths    []string
	debounce time.Duration

	mu     sync.Mutex
	closed bool
}

// New creates a watcher over paths.
func New(ingest driving.IngestService, paths []string) *Watcher {
	return &Watcher{
		ingest:   ingest,
		paths:    paths,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the quiet period before a re-ingest.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Close stops future runs. It is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Run watches until ctx is cancelled. onReport may be nil.
func (w *Watcher) Run(ctx context.Context, onReport ReportFunc) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if len(w.paths) == 0 {
		return fmt.Errorf("%w: no paths to watch", domain.ErrInvalidInput)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, p := range w.paths {
		if err := addPath(fsw, p); err != nil {
			return err
		}
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(fsw, event) {
				continue
			}
			logger.Debug("watch: %s %s", event.Op, event.Name)
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			report, err := w.ingest.Ingest(ctx, driving.IngestRequest{Paths: w.paths, Reset: true})
			if err != nil {
				logger.Error("watch: re-ingest failed: %v", err)
			}
			if onReport != nil {
				onReport(report, err)
			}
		}
	}
}

// handleEvent reports whether event should trigger a re-ingest.
// New directories are added to the watch set.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if isHidden(event.Name) {
		return false
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return false
		}
		if info.IsDir() {
			if err := addPath(fsw, event.Name); err != nil {
				logger.Warn("watch: %v", err)
			}
			return false
		}
		return true
	case event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		return err == nil && !info.IsDir()
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return true
	default:
		return false
	}
}

// addPath watches a directory tree, or the parent directory of a single file.
func addPath(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch: root path error: %w", err)
	}
	if !info.IsDir() {
		return fsw.Add(filepath.Dir(root))
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch: adding %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
