package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Provider holds the current configuration and hot-reloads it when the
// config file changes, so settings consumers that read through it always
// see the latest values without a restart. An invalid edit keeps the
// previous configuration and logs a warning.
type Provider struct {
	mu   sync.RWMutex
	cfg  Config
	path string

	log       *slog.Logger
	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewProvider creates a provider serving cfg, reloading from path on
// change once Watch is started.
func NewProvider(cfg Config, path string, log *slog.Logger) *Provider {
	return &Provider{
		cfg:     cfg,
		path:    path,
		log:     log,
		closeCh: make(chan struct{}),
	}
}

// Get returns the current configuration snapshot.
func (p *Provider) Get() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Watch starts watching the config file for changes. Editors typically
// replace the file rather than write in place, so the parent directory
// is watched and events are filtered by name.
func (p *Provider) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	p.watcher = watcher

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		p.watcher = nil
		return err
	}

	go p.watchLoop()
	return nil
}

func (p *Provider) watchLoop() {
	for {
		select {
		case <-p.closeCh:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Name != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.reload()
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			if p.log != nil {
				p.log.Warn("config_watch_error", slog.String("error", err.Error()))
			}
		}
	}
}

func (p *Provider) reload() {
	result, err := LoadFrom(p.path)
	if err != nil {
		if p.log != nil {
			p.log.Warn("config_reload_failed", slog.String("error", err.Error()))
		}
		return
	}
	for _, w := range result.Warnings {
		if p.log != nil {
			p.log.Warn("config_warning", slog.String("warning", w))
		}
	}

	p.mu.Lock()
	p.cfg = result.Config
	p.mu.Unlock()

	if p.log != nil {
		p.log.Info("config_reloaded", slog.String("path", p.path))
	}
}

// Close stops the watcher. Safe to call multiple times.
func (p *Provider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closeCh)
		if p.watcher != nil {
			err = p.watcher.Close()
		}
	})
	return err
}
