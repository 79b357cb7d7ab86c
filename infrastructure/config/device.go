package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DeviceConfig is the mutable per-device settings file. The syncId lives
// here rather than in the environment because the user sets and changes it
// at runtime; the watcher picks the change up without a restart.
type DeviceConfig struct {
	SyncID string `yaml:"syncId"`
}

// LoadDeviceConfig reads the device file. A missing file is not an error:
// the device simply starts in local-only mode.
func LoadDeviceConfig(path string) (DeviceConfig, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DeviceConfig{}, nil
	}
	if err != nil {
		return DeviceConfig{}, fmt.Errorf("failed to read device config: %w", err)
	}

	var dc DeviceConfig
	if err := yaml.Unmarshal(raw, &dc); err != nil {
		return DeviceConfig{}, fmt.Errorf("failed to parse device config: %w", err)
	}
	return dc, nil
}

// SaveDeviceConfig writes the device file
func SaveDeviceConfig(path string, dc DeviceConfig) error {
	raw, err := yaml.Marshal(dc)
	if err != nil {
		return fmt.Errorf("failed to serialize device config: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// DeviceWatcher watches the device file and invokes callbacks when its
// contents change.
type DeviceWatcher struct {
	path      string
	current   DeviceConfig
	callbacks []func(DeviceConfig)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewDeviceWatcher creates a watcher over the device file. The file's
// directory is watched so the common editor save-by-rename still notifies.
func NewDeviceWatcher(path string, initial DeviceConfig, logger *zap.Logger) (*DeviceWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &DeviceWatcher{
		path:    path,
		current: initial,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.watchLoop()

	return w, nil
}

// OnChange registers a callback invoked with the new config after a reload
func (w *DeviceWatcher) OnChange(fn func(DeviceConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the last loaded config
func (w *DeviceWatcher) Current() DeviceConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the watcher
func (w *DeviceWatcher) Close() error {
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *DeviceWatcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("device config watcher error", zap.Error(err))
		}
	}
}

func (w *DeviceWatcher) reload() {
	dc, err := LoadDeviceConfig(w.path)
	if err != nil {
		w.logger.Warn("device config reload failed, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := dc != w.current
	w.current = dc
	callbacks := make([]func(DeviceConfig), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if !changed {
		return
	}

	w.logger.Info("device config reloaded", zap.String("syncId", dc.SyncID))
	for _, fn := range callbacks {
		fn(dc)
	}
}
