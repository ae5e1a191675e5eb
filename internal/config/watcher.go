package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
)

// Watcher watches the config file for changes and delivers reloaded configs
// to a callback. Rapid editor save bursts are debounced.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	stateDir string
	onChange func(*Config)
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a config watcher for the state directory. onChange is
// invoked with each successfully reloaded config; loads that fail validation
// are logged and skipped, leaving the previous config in force.
func NewWatcher(stateDir string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		stateDir: stateDir,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Watching the directory rather than the file keeps
// the watch alive across the rename-then-replace dance most editors do.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.stateDir); err != nil {
		return err
	}
	w.running = true
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	target := filepath.Join(w.stateDir, DefaultFileName)

	// Events only mark the file dirty; the reload runs once the save burst
	// has settled past the debounce window, so the last write always wins.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.Now()
		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}

			cfg, err := Load(w.stateDir)
			if err != nil {
				logging.BootError("config reload skipped: %v", err)
				continue
			}
			logging.Boot("config reloaded from %s", target)
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.BootError("config watcher error: %v", err)
		}
	}
}

// Stop halts watching and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}
