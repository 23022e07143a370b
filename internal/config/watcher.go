package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the CONFIG_FILE overlay when it changes on disk and
// notifies registered callbacks with the new configuration. Invalid reloads
// are logged and ignored.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	fs     *fsnotify.Watcher
	stopCh chan struct{}
	once   sync.Once
}

// NewWatcher watches path for changes. The containing directory is watched
// rather than the file so editors that replace the file on save are seen.
func NewWatcher(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		path:     abs,
		debounce: defaultDebounce,
		logger:   logger,
		current:  initial,
		fs:       fs,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a callback run after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start runs the event loop in the background until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
	w.logger.Info("Configuration hot reloading enabled", zap.String("file", w.path))
}

// Stop ends the event loop and releases the file watcher.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := load(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.String("log_level", cfg.LogLevel),
		zap.Int("callbacks", len(callbacks)),
	)

	for _, fn := range callbacks {
		fn(cfg)
	}
}
