package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/jlud/internal/appdir"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "10.100.61.3:61440", cfg.Common.RemoteAddr)
	assert.Equal(t, 5*time.Second, cfg.Common.Timeout.Duration())
	assert.Equal(t, 20*time.Second, cfg.Common.KeepAliveInterval.Duration())
	assert.Equal(t, -1, cfg.Common.Retry)
	assert.False(t, cfg.Events.Enabled())
	assert.False(t, cfg.Metrics.Enabled())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[interface]
name = "eth0"

[common]
remote_addr = "192.0.2.1:61440"
retry = 3
keep_alive_interval = 10

[user]
file = "/tmp/jlud-user"

[log]
level = "debug"
format = "json"

[limits]
send_rate = 2.5
send_burst = 4

[events]
nats_urls = ["nats://127.0.0.1:4222"]

[metrics]
addr = ":9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eth0", cfg.Interface.Name)
	assert.Equal(t, "192.0.2.1:61440", cfg.Common.RemoteAddr)
	assert.Equal(t, 3, cfg.Common.Retry)
	assert.Equal(t, 10*time.Second, cfg.Common.KeepAliveInterval.Duration())
	assert.Equal(t, "/tmp/jlud-user", cfg.User.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2.5, cfg.Limits.SendRate)
	assert.Equal(t, 4, cfg.Limits.SendBurst)
	assert.Equal(t, []string{"nats://127.0.0.1:4222"}, cfg.Events.NATSURLs)
	assert.True(t, cfg.Metrics.Enabled())

	// Ключи, которых нет в файле, берутся из Default
	assert.Equal(t, "0.0.0.0:0", cfg.Common.LocalAddr)
	assert.Equal(t, Seconds(5), cfg.Common.Timeout)
	assert.Equal(t, Seconds(5), cfg.Common.RetryInterval)
	assert.True(t, cfg.User.SaveUser)
	assert.Equal(t, "jlud.events", cfg.Events.SubjectPrefix)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
common:
  remote_addr: "198.51.100.7:61440"
  timeout: 2
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7:61440", cfg.Common.RemoteAddr)
	assert.Equal(t, 2*time.Second, cfg.Common.Timeout.Duration())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, -1, cfg.Common.Retry)
}

func TestLoad_EmbeddedDefault(t *testing.T) {
	path := writeFile(t, "config.toml", string(appdir.DefaultConfigTOML()))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	resolvePaths(want)
	assert.Equal(t, want, cfg)
}

func TestLoad_ResolvesPaths(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	path := writeFile(t, "config.toml", "[log]\nto_file = true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, appdir.UserFilePath(), cfg.User.File)
	assert.Equal(t, appdir.LogFilePath(), cfg.Log.File)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("broken toml", func(t *testing.T) {
		_, err := Load(writeFile(t, "config.toml", "[common\nretry = "))
		require.ErrorContains(t, err, "parse config")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeFile(t, "config.toml", "[common]\nretry = -5\n"))
		require.ErrorContains(t, err, "validate config")
		require.ErrorContains(t, err, "common.retry")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"remote without port", func(c *Config) { c.Common.RemoteAddr = "10.0.0.1" }, "common.remote_addr"},
		{"remote port zero", func(c *Config) { c.Common.RemoteAddr = "10.0.0.1:0" }, "common.remote_addr"},
		{"local port too big", func(c *Config) { c.Common.LocalAddr = "0.0.0.0:70000" }, "common.local_addr"},
		{"zero timeout", func(c *Config) { c.Common.Timeout = 0 }, "common.timeout"},
		{"retry below -1", func(c *Config) { c.Common.Retry = -2 }, "common.retry"},
		{"negative retry interval", func(c *Config) { c.Common.RetryInterval = -1 }, "common.retry_interval"},
		{"zero keep-alive interval", func(c *Config) { c.Common.KeepAliveInterval = 0 }, "common.keep_alive_interval"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"rate without burst", func(c *Config) { c.Limits.SendRate = 1 }, "limits.send_burst"},
		{"negative rate", func(c *Config) { c.Limits.SendRate = -1 }, "limits.send_rate"},
		{"events without prefix", func(c *Config) {
			c.Events.NATSURLs = []string{"nats://localhost:4222"}
			c.Events.SubjectPrefix = ""
		}, "events.subject_prefix"},
		{"metrics path", func(c *Config) {
			c.Metrics.Addr = ":9100"
			c.Metrics.Path = "metrics"
		}, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Common.Timeout = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.ErrorContains(t, err, "common.timeout")
	require.ErrorContains(t, err, "log.level")
}
