package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LCARS_CONFIG", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("TELEMETRY_STATIC_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3017", cfg.Address)
	assert.Equal(t, 5*time.Minute, cfg.StaticTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.TerminalInit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcars.yaml")
	content := `
http_addr: "0.0.0.0:9000"
log_level: "debug"
telemetry_static_ttl: 2m
allowed_origins:
  - "http://example.test"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("LCARS_CONFIG", path)
	t.Setenv("HTTP_ADDR", "127.0.0.1:4000")
	t.Setenv("TERMINAL_IDLE_TIMEOUT", "90s")
	t.Setenv("ELECTRON_IS_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Address)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.StaticTTL)
	assert.Equal(t, 90*time.Second, cfg.TerminalIdle)
	assert.Equal(t, []string{"http://example.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.DevMode)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("LCARS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
}

func TestEnvHelpers_IgnoreInvalid(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_LIST", " a, ,b ")

	assert.Equal(t, time.Second, envDuration("X_DURATION", time.Second))
	assert.False(t, envBool("X_BOOL", false))
	assert.Equal(t, []string{"a", "b"}, envList("X_LIST", nil))
}
