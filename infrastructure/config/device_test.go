package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDeviceConfig_MissingFileMeansLocalOnly(t *testing.T) {
	dc, err := LoadDeviceConfig(filepath.Join(t.TempDir(), "device.yaml"))

	require.NoError(t, err)
	assert.Empty(t, dc.SyncID)
}

func TestDeviceConfig_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")

	require.NoError(t, SaveDeviceConfig(path, DeviceConfig{SyncID: "family-42"}))

	dc, err := LoadDeviceConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "family-42", dc.SyncID)
}

func TestLoadDeviceConfig_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte("syncId: [not: closed"), 0o644))

	_, err := LoadDeviceConfig(path)

	assert.Error(t, err)
}

func TestDeviceWatcher_NotifiesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, SaveDeviceConfig(path, DeviceConfig{SyncID: "before"}))

	watcher, err := NewDeviceWatcher(path, DeviceConfig{SyncID: "before"}, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Close()

	var mu sync.Mutex
	var seen []string
	watcher.OnChange(func(dc DeviceConfig) {
		mu.Lock()
		seen = append(seen, dc.SyncID)
		mu.Unlock()
	})

	require.NoError(t, SaveDeviceConfig(path, DeviceConfig{SyncID: "after"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == "after"
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, "after", watcher.Current().SyncID)
}

func TestDeviceWatcher_IgnoresUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, SaveDeviceConfig(path, DeviceConfig{SyncID: "same"}))

	watcher, err := NewDeviceWatcher(path, DeviceConfig{SyncID: "same"}, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Close()

	var fired sync.Map
	watcher.OnChange(func(dc DeviceConfig) {
		fired.Store("fired", true)
	})

	// Rewrite with identical content; the watcher reloads but must not notify
	require.NoError(t, SaveDeviceConfig(path, DeviceConfig{SyncID: "same"}))
	time.Sleep(300 * time.Millisecond)

	_, ok := fired.Load("fired")
	assert.False(t, ok)
}
