package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// watchEventBuffer is the size of the watch event channel.
	watchEventBuffer = 64

	// DefaultDebounce is how long changes accumulate before events are sent.
	DefaultDebounce = 300 * time.Millisecond
)

// WatchOperation indicates the type of file change.
type WatchOperation string

// WatchOpCreate, WatchOpModify and WatchOpDelete enumerate watch operations.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent reports a content change of a watched file.
type WatchEvent struct {
	// Path is the path as given to NewFileWatcher.
	Path string

	// Operation is the type of change.
	Operation WatchOperation
}

// WatchOption configures a FileWatcher.
type WatchOption func(*FileWatcher)

// WithDebounce sets how long changes accumulate before events are sent.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *FileWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// FileWatcher watches a fixed set of files and emits an event when one of
// them changes content. Parent directories are watched so that editors which
// replace files by rename are still tracked. Writes that leave the content
// hash unchanged produce no event.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// files maps absolute paths to the caller's spelling.
	files map[string]string

	// pending and hashes are owned by the event loop once Start returns.
	pending map[string]fsnotify.Op
	hashes  map[string]string

	events  chan WatchEvent
	dropped atomic.Int64
}

// NewFileWatcher creates a watcher for paths. Remote locators are rejected.
func NewFileWatcher(paths []string, opts ...WatchOption) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}

	files := make(map[string]string, len(paths))
	for _, p := range paths {
		local, ok := LocalPath(p)
		if !ok {
			return nil, fmt.Errorf("cannot watch remote locator %s", p)
		}
		abs, err := filepath.Abs(local)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		files[abs] = p
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FileWatcher{
		watcher:  fsw,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		files:    files,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, watchEventBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events returns the channel of watch events. It is closed when the watcher
// stops.
func (w *FileWatcher) Events() <-chan WatchEvent {
	return w.events
}

// Start records the current content of every file and begins watching.
// Events are delivered until ctx is done or Stop is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for abs := range w.files {
		if hash, err := hashFile(abs); err == nil {
			w.hashes[abs] = hash
		}
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
	}

	go w.run(ctx)

	w.logger.Info("File watcher started",
		"files", len(w.files),
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher. The events channel is closed by the event loop.
func (w *FileWatcher) Stop() error {
	return w.watcher.Close()
}

// DroppedEvents returns the number of events dropped because the channel
// was full.
func (w *FileWatcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

func (w *FileWatcher) run(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, tracked := w.files[filepath.Clean(event.Name)]; tracked {
				w.pending[filepath.Clean(event.Name)] |= event.Op
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// flush turns accumulated filesystem operations into content events.
func (w *FileWatcher) flush() {
	for abs := range w.pending {
		delete(w.pending, abs)

		event := WatchEvent{Path: w.files[abs]}
		oldHash, hadHash := w.hashes[abs]

		hash, err := hashFile(abs)
		if err != nil {
			if !hadHash {
				continue
			}
			if !errors.Is(err, os.ErrNotExist) {
				w.logger.Warn("Failed to read watched file", "path", event.Path, "error", err)
				continue
			}
			delete(w.hashes, abs)
			event.Operation = WatchOpDelete
			w.send(event)
			continue
		}

		if hadHash && hash == oldHash {
			continue
		}
		w.hashes[abs] = hash

		event.Operation = WatchOpModify
		if !hadHash {
			event.Operation = WatchOpCreate
		}
		w.send(event)
	}
}

func (w *FileWatcher) send(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
