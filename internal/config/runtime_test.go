package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadRuntimeConfig()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 5242880, cfg.MaxProofBytes)
	assert.Equal(t, "UTC", cfg.Location.String())
}

func TestLoadRuntimeConfig_TrimsBackendURL(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("BACKEND_URL", "http://backend:3001/")

	cfg, err := LoadRuntimeConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3001", cfg.BackendURL)
}

func TestLoadRuntimeConfig_InvalidDuration(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("BACKEND_TIMEOUT", "soon")

	_, err := LoadRuntimeConfig()
	assert.Error(t, err)
}

func TestLoadRuntimeConfig_ProdRequiresSecret(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadRuntimeConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := LoadRuntimeConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
}
