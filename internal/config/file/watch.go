package file

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"rrcore/internal/config"
	"rrcore/internal/logging"
)

// Watcher reloads a file Store's config whenever its file changes on disk
// and hands the new config to onReload. It lifts the teacher's
// load-on-start-only posture: GC and compaction budgets are exactly the
// kind of knob an operator wants to tune without a restart.
type Watcher struct {
	store    *Store
	onReload func(*config.Config)
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// NewWatcher creates a watcher over store. It does not start watching
// until Start is called.
func NewWatcher(store *Store, onReload func(*config.Config), logger *slog.Logger) *Watcher {
	return &Watcher{
		store:    store,
		onReload: onReload,
		logger:   logging.Default(logger).With("component", "config-watcher"),
	}
}

// Start begins watching the store's config file for writes and creates,
// reloading and invoking onReload on each change. Start is a no-op if
// already started.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the file's directory rather than the file: Save replaces the
	// file by renaming a temp file over it, which ends a watch on the old
	// file, and the directory watch also sees the file's first creation.
	if err := fw.Add(filepath.Dir(w.store.path)); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stop = make(chan struct{})

	go w.loop(fw, w.stop)
	return nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher, stop chan struct{}) {
	defer fw.Close()
	for {
		select {
		case <-stop:
			return
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.store.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := w.store.Load(context.Background())
			if err != nil {
				w.logger.Warn("reload config failed", "error", err)
				continue
			}
			if cfg != nil {
				w.onReload(cfg)
			}
		}
	}
}

// Stop halts watching. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
	w.watcher = nil
}
