package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *NetworkConfig
	onChange []func(*NetworkConfig)
	logger   *slog.Logger
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path, logger: slog.Default()}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// SetLogger replaces the logger used for reload warnings.
func (l *Loader) SetLogger(logger *slog.Logger) {
	l.logger = logger
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *NetworkConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*NetworkConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. The parent directory is watched so editors and config mounts that
// replace the file by rename are picked up too. Call the returned stop
// function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				cfg, err := l.load()
				if err != nil {
					// Keep serving the old config; a rename is usually
					// followed by a create once the new file lands.
					l.logger.Warn("config reload failed", "path", l.path, "op", ev.Op.String(), "err", err)
					continue
				}
				l.publish(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file and notifies the
// OnChange callbacks before returning.
func (l *Loader) Reload() (*NetworkConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.publish(cfg)
	return cfg, nil
}

// publish stores cfg as current and runs the callbacks outside the lock.
func (l *Loader) publish(cfg *NetworkConfig) {
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*NetworkConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
}

func (l *Loader) load() (*NetworkConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Parse decodes YAML without touching the filesystem, applying the same
// defaults as the file loader.
func Parse(data []byte) (*NetworkConfig, error) {
	var cfg NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *NetworkConfig) {
	if cfg.Engine.TraceWorkers == 0 {
		cfg.Engine.TraceWorkers = 2
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 64
	}
	if cfg.Engine.TraceTimeoutMs == 0 {
		cfg.Engine.TraceTimeoutMs = 5000
	}
	if cfg.Engine.QueueOrder == "" {
		cfg.Engine.QueueOrder = "fifo"
	}
}
