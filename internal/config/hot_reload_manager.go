package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/markrai/gitpow/internal/errors"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// HotReloadManager wraps a config manager and swaps whole snapshots
// when the file changes on disk. Readers never observe a partially
// updated Config.
type HotReloadManager struct {
	baseManager Manager
	configPath  string
	watcher     *fsnotify.Watcher
	logger      *zap.Logger

	current atomic.Pointer[Config]

	callbacks   []func(*Config)
	callbacksMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewHotReloadManager creates a new hot reload manager
func NewHotReloadManager(baseManager Manager, configPath string, logger *zap.Logger) (*HotReloadManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create file watcher", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &HotReloadManager{
		baseManager: baseManager,
		configPath:  configPath,
		watcher:     watcher,
		logger:      logger.Named("config"),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	cfg, err := baseManager.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			m.abort()
			return nil, errors.Wrap(errors.ErrTypeConfig, "failed to load initial config", err)
		}
		if err := baseManager.CreateDefaultConfig(); err != nil {
			m.abort()
			return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create default config", err)
		}
		cfg, err = baseManager.Load()
		if err != nil {
			m.abort()
			return nil, errors.Wrap(errors.ErrTypeConfig, "failed to load default config", err)
		}
	}
	m.current.Store(cfg.Clone())

	if err := m.startWatching(); err != nil {
		m.abort()
		return nil, err
	}

	return m, nil
}

func (m *HotReloadManager) abort() {
	m.cancel()
	m.watcher.Close()
}

// Load returns the current snapshot.
func (m *HotReloadManager) Load() (*Config, error) {
	cfg := m.current.Load()
	if cfg == nil {
		return nil, errors.New(errors.ErrTypeConfig, "no config loaded")
	}
	return cfg.Clone(), nil
}

// Snapshot returns the current config by value.
func (m *HotReloadManager) Snapshot() Config {
	if cfg := m.current.Load(); cfg != nil {
		return *cfg.Clone()
	}
	return Default()
}

// Save persists cfg and publishes it as the new snapshot.
func (m *HotReloadManager) Save(cfg *Config) error {
	if err := m.baseManager.Save(cfg); err != nil {
		return err
	}
	m.publish(cfg.Clone())
	return nil
}

// CreateDefaultConfig creates the default config
func (m *HotReloadManager) CreateDefaultConfig() error {
	if err := m.baseManager.CreateDefaultConfig(); err != nil {
		return err
	}
	return m.reloadFromBase("failed to load created config")
}

// SetRepository updates the repository map on disk and republishes.
func (m *HotReloadManager) SetRepository(id, path string) error {
	if err := m.baseManager.SetRepository(id, path); err != nil {
		return err
	}
	return m.reloadFromBase("failed to reload after update")
}

func (m *HotReloadManager) reloadFromBase(msg string) error {
	cfg, err := m.baseManager.Load()
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, msg, err)
	}
	m.publish(cfg)
	return nil
}

func (m *HotReloadManager) publish(cfg *Config) {
	m.current.Store(cfg)
	m.notifyCallbacks(cfg)
}

// OnConfigChange registers a callback for config changes
func (m *HotReloadManager) OnConfigChange(callback func(*Config)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Stop stops the hot reload manager
func (m *HotReloadManager) Stop() error {
	m.cancel()

	m.debounceMu.Lock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceMu.Unlock()

	<-m.done

	return m.watcher.Close()
}

// startWatching watches the parent directory so atomic renames are seen.
func (m *HotReloadManager) startWatching() error {
	dir := filepath.Dir(m.configPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to create config directory", err)
	}

	if err := m.watcher.Add(dir); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to watch config directory", err)
	}

	go m.watchLoop()

	return nil
}

func (m *HotReloadManager) watchLoop() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.scheduleReload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (m *HotReloadManager) scheduleReload() {
	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(reloadDebounce, m.reloadConfig)
}

func (m *HotReloadManager) reloadConfig() {
	cfg, err := m.baseManager.Load()
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("config file removed, keeping current snapshot")
			return
		}
		m.logger.Warn("failed to reload config", zap.Error(err))
		return
	}

	m.logger.Debug("config reloaded", zap.String("path", m.configPath))
	m.publish(cfg)
}

func (m *HotReloadManager) notifyCallbacks(cfg *Config) {
	m.callbacksMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("config change callback panic", zap.Any("panic", r))
				}
			}()
			cb(cfg.Clone())
		}(callback)
	}
}
