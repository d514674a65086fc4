package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestHotReloadManager_CreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	base, err := NewYAMLConfigManager(configPath)
	require.NoError(t, err)

	hr, err := NewHotReloadManager(base, configPath, nil)
	require.NoError(t, err)
	defer hr.Stop()

	cfg, err := hr.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	_, err = os.Stat(configPath)
	assert.NoError(t, err)
}

func TestHotReloadManager_ReloadsOnWrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	base, err := NewYAMLConfigManager(configPath)
	require.NoError(t, err)

	hr, err := NewHotReloadManager(base, configPath, nil)
	require.NoError(t, err)
	defer hr.Stop()

	var calls int32
	hr.OnConfigChange(func(*Config) { atomic.AddInt32(&calls, 1) })

	next := Default()
	next.ReposRoot = "/reloaded"
	data, err := yaml.Marshal(next)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0644))

	require.Eventually(t, func() bool {
		return hr.Snapshot().ReposRoot == "/reloaded"
	}, 2*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHotReloadManager_KeepsSnapshotOnBadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	base, err := NewYAMLConfigManager(configPath)
	require.NoError(t, err)

	hr, err := NewHotReloadManager(base, configPath, nil)
	require.NoError(t, err)
	defer hr.Stop()

	require.NoError(t, os.WriteFile(configPath, []byte("diff:\n  backend: bogus\n"), 0644))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, BackendGit, hr.Snapshot().Diff.Backend)
}

func TestHotReloadManager_SnapshotsAreIsolated(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	base, err := NewYAMLConfigManager(configPath)
	require.NoError(t, err)

	hr, err := NewHotReloadManager(base, configPath, nil)
	require.NoError(t, err)
	defer hr.Stop()

	require.NoError(t, hr.SetRepository("demo", "/work/demo"))

	snap := hr.Snapshot()
	snap.Repositories["demo"] = "/mutated"

	assert.Equal(t, "/work/demo", hr.Snapshot().Repositories["demo"])
}
