package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 100, cfg.RateLimit.API.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, 3, cfg.RateLimit.Register.Requests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Register.Window)
	assert.False(t, cfg.Chaos.Enabled)
	assert.False(t, cfg.Production())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clubverse.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
http:
  addr: ":8080"
auth:
  token_ttl: 2h
chaos:
  enabled: true
  failure_rate: 0.5
`), 0o600))

	t.Setenv("CLUBVERSE_HTTP_ADDR", ":9090")
	t.Setenv("CLUBVERSE_CSRF_TRUSTED_ORIGINS", "clubverse.example,www.clubverse.example")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Chaos.Enabled)
	assert.Equal(t, 0.5, cfg.Chaos.FailureRate)
	assert.Equal(t, []string{"clubverse.example", "www.clubverse.example"}, cfg.CSRF.TrustedOrigins)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLUBVERSE_LOG_ENV", "production")
	t.Setenv("CLUBVERSE_CHAOS_ENABLED", "true")
	t.Setenv("CLUBVERSE_CSRF_KEY", "short")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret must be changed")
	assert.Contains(t, err.Error(), "chaos must not be enabled")
	assert.Contains(t, err.Error(), "csrf.key must be 32 bytes")
}
