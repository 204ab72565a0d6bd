// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a dataset directory and reports changes to dataset files only,
// debouncing bursts of events (editors and exporters often write several
// times per save).
package fsnotify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/hscd/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path stays quiet after firing.
const DefaultDebounce = 250 * time.Millisecond

// datasetExts are the file extensions a reload can import.
var datasetExts = map[string]bool{
	".json":   true,
	".yaml":   true,
	".yml":    true,
	".sqlite": true,
	".db":     true,
}

// Editor and sqlite side files that share a dataset extension prefix.
var ignoreSuffixes = []string{
	".swp",
	"~",
	"-journal",
	"-wal",
	"-shm",
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex
	wg       sync.WaitGroup
}

var _ ports.Watcher = (*Watcher)(nil)

// NewWatcher creates a new dataset directory watcher.
// A zero debounce selects DefaultDebounce.
func NewWatcher(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		fw:       fw,
		logger:   logger.With("component", "watcher"),
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring dir (not recursive; datasets live at the top level).
// onChange is called with the absolute path of each changed dataset file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("watch %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", absPath)
	}
	if err := w.fw.Add(absPath); err != nil {
		return fmt.Errorf("watch %s: %w", absPath, err)
	}

	// Debounce state: last fire time per file
	last := make(map[string]time.Time)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name
				if !IsDatasetFile(path) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				now := time.Now()
				if t, seen := last[path]; seen && now.Sub(t) < w.debounce {
					continue
				}
				last[path] = now

				select {
				case <-w.done:
					return
				default:
				}
				w.logger.Debug("dataset changed", "path", path, "op", event.Op.String())
				onChange(path)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own
				w.logger.Warn("watch error", "err", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	err := w.fw.Close()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}

// IsDatasetFile reports whether path names a file the importer understands.
func IsDatasetFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, s := range ignoreSuffixes {
		if strings.HasSuffix(base, s) {
			return false
		}
	}
	return datasetExts[strings.ToLower(filepath.Ext(base))]
}
