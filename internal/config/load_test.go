package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "a-test-secret-with-at-least-32-chars!"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", testJWTSecret)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 10080, cfg.Auth.RefreshTokenLifetimeMinutes)
	assert.Empty(t, cfg.Redis.URL, "redis is opt-in")
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKHIVE_SERVER_PORT", "9090")
	t.Setenv("TASKHIVE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKHIVE_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadMissingJWTSecret(t *testing.T) {
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadShortJWTSecret(t *testing.T) {
	t.Setenv("TASKHIVE_DATABASE_URL", "postgres://localhost:5432/taskhive_test")
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKHIVE_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("TASKHIVE_AUTH_JWT_SECRET", testJWTSecret)

	_, err := Load()
	assert.Error(t, err)
}
