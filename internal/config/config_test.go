package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("MAX_MONTHS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 1000, cfg.MaxMonths)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, ":8000", cfg.Addr())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
port: 9100
max_principal: 5000000
max_prepayments: 12
log_level: DEBUG
rate_limit_window: 30s
redis_addr: redis:6379
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9200")
	t.Setenv("MAX_MONTHS", "5000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Port, "env overrides file")
	assert.Equal(t, 5e6, cfg.MaxPrincipal)
	assert.Equal(t, 12, cfg.MaxPrepayments)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 1000, cfg.MaxMonths, "clamped to the engine cap")
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
