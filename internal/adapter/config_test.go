package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveConfigThenLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := DefaultConfig()
	cfg.Engine.MaxActive = 7
	cfg.Library.Root = "/srv/clips"
	cfg.Player.Command = "vlc"

	require.NoError(t, SaveConfig(cfg))
	_, err := os.Stat(filepath.Join(defaultConfigPath(), "config.yaml"))
	require.NoError(t, err)

	viper.Reset()
	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Engine.MaxActive)
	assert.Equal(t, "/srv/clips", loaded.Library.Root)
	assert.Equal(t, "vlc", loaded.Player.Command)
}

func TestClearCacheRemovesThumbnails(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "aa.jpg"), []byte("x"), 0o644))

	cfg := DefaultConfig()
	cfg.Thumbs.CacheDir = cacheDir

	require.NoError(t, ClearCache(cfg))
	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
}

func TestClearCacheMissingDirIsNoError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thumbs.CacheDir = filepath.Join(t.TempDir(), "never-created")
	assert.NoError(t, ClearCache(cfg))
}
