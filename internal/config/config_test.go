package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Listen.Host)
	assert.Equal(t, "2323", cfg.Listen.Port)

	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Admin.Host)
	assert.Equal(t, "8023", cfg.Admin.Port)

	assert.Equal(t, "/bin/sh", cfg.Terminal.Shell)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, 80, cfg.Terminal.Cols)
	assert.Equal(t, "term", cfg.Terminal.Namespace)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 20, cfg.RateLimit.AcceptsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remconsd.toml")
	data := `
[listen]
port = "2424"

[terminal]
shell = "/bin/bash"
rows = 50

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2424", cfg.Listen.Port)
	assert.Equal(t, "/bin/bash", cfg.Terminal.Shell)
	assert.Equal(t, 50, cfg.Terminal.Rows)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched values keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Listen.Host)
	assert.Equal(t, 80, cfg.Terminal.Cols)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remconsd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[listen]\nport = \"2424\"\n"), 0o644))

	t.Setenv("REMCONS_LISTEN_PORT", "2525")
	t.Setenv("REMCONS_LOG_LEVEL", "warn")
	t.Setenv("REMCONS_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2525", cfg.Listen.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Equal(t, Default(), cfg)
}
