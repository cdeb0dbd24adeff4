package acl

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// Reloader is reloaded by a FileWatcher when its file changes.
type Reloader interface {
	Reload() error
}

// FileWatcher reloads a Reloader when a file changes on disk. Bursts of
// events within the debounce interval cause a single reload.
type FileWatcher struct {
	filePath string
	target   Reloader
	logger   logging.Logger
	debounce time.Duration

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// WatcherConfig holds file watcher configuration.
type WatcherConfig struct {
	FilePath string
	Target   Reloader
	Logger   logging.Logger
	Debounce time.Duration // Default: 200ms
}

// NewFileWatcher creates a watcher for cfg.FilePath. The parent directory
// is watched so that editors replacing the file by rename are seen.
func NewFileWatcher(cfg *WatcherConfig) (*FileWatcher, error) {
	if cfg.FilePath == "" {
		return nil, ErrNoFilePath
	}
	if cfg.Target == nil {
		return nil, ErrInvalidConfig
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	path, err := filepath.Abs(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("acl: failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("acl: failed to watch %s: %w", path, err)
	}

	return &FileWatcher{
		filePath:  path,
		target:    cfg.Target,
		logger:    logger,
		debounce:  debounce,
		watcher:   w,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching the file for changes.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.watchLoop()

	w.logger.Info("ACI file watcher started",
		"file", w.filePath,
		"debounce", w.debounce.String(),
	)
}

// Stop stops watching the file. A stopped watcher cannot be restarted.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
	_ = w.watcher.Close()

	w.logger.Info("ACI file watcher stopped", "file", w.filePath)
}

func (w *FileWatcher) watchLoop() {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("ACI file watcher error", "file", w.filePath, "error", err)

		case <-debounceCh:
			w.triggerReload()
			debounceTimer = nil
			debounceCh = nil
		}
	}
}

func (w *FileWatcher) triggerReload() {
	w.logger.Info("ACI file changed, reloading", "file", w.filePath)
	if err := w.target.Reload(); err != nil {
		w.logger.Error("ACI reload failed", "file", w.filePath, "error", err)
	}
}

// IsRunning returns true if the watcher is running.
func (w *FileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
