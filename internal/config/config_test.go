package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wellnest.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Notify.MaxWorkers)
	assert.Equal(t, 8, cfg.Notify.MaxRetries)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wellnest.toml")
	content := `
[server]
port = 9000

[auth]
jwt_secret = "s3cret"

[rate_limit]
per_minute = 120
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
	assert.Equal(t, "info", cfg.Log.Level, "defaults survive partial files")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WELLNEST_SERVER_PORT", "7777")
	t.Setenv("WELLNEST_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "wellnest.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wellnest.toml")

	require.NoError(t, InitConfig(path))
	assert.Error(t, InitConfig(path), "refuses to overwrite")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}
