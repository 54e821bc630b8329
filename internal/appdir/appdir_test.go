package appdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempXDG(t *testing.T) (configHome, cacheHome string) {
	t.Helper()
	root := t.TempDir()
	configHome = filepath.Join(root, "config")
	cacheHome = filepath.Join(root, "cache")

	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return configHome, cacheHome
}

func TestPaths(t *testing.T) {
	configHome, cacheHome := withTempXDG(t)

	assert.Equal(t, filepath.Join(configHome, "jlud"), Dir())
	assert.Equal(t, filepath.Join(configHome, "jlud", "config.toml"), ConfigPath())
	assert.Equal(t, filepath.Join(cacheHome, "jlud", "user"), UserFilePath())
	assert.Equal(t, filepath.Join(configHome, "jlud", "logs", "jlud.log"), LogFilePath())
}

func TestInit(t *testing.T) {
	withTempXDG(t)

	require.NoError(t, Init())

	data, err := os.ReadFile(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigTOML(), data)

	for _, dir := range []string{CacheDir(), LogsDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestInit_KeepsExistingConfig(t *testing.T) {
	withTempXDG(t)

	require.NoError(t, os.MkdirAll(Dir(), 0700))
	custom := []byte("[common]\nretry = 3\n")
	require.NoError(t, os.WriteFile(ConfigPath(), custom, 0644))

	require.NoError(t, Init())

	data, err := os.ReadFile(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}
