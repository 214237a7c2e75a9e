package core

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"paintbot/logging"
)

// ConfigWatcher reloads the configuration file when it changes on disk and
// hands the fresh Config to a callback. Editors replace files with
// rename+create, so the parent directory is watched rather than the file.
type ConfigWatcher struct {
	path     string
	onChange func(Config)
	logger   *logging.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewConfigWatcher starts watching path. onChange runs on the watcher
// goroutine after every successful reload; reload failures are logged and
// the previous configuration stays active.
func NewConfigWatcher(path string, onChange func(Config), logger *logging.Logger) (*ConfigWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &ConfigWatcher{
		path:     path,
		onChange: onChange,
		logger:   logger.Named("config-watcher"),
		watcher:  fsw,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// run consumes filesystem events until Close. Write bursts are debounced so
// one save triggers one reload.
func (w *ConfigWatcher) run() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Config watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.Warnw("Config reload failed, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}
	w.logger.Infow("Configuration reloaded", "path", w.path)
	w.onChange(cfg)
}

// Close stops the watcher.
func (w *ConfigWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
