package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":7070", cfg.SyncAddr)
	assert.Equal(t, "@every 15m", cfg.RefreshSchedule)
	assert.Equal(t, 24*time.Hour, cfg.JWTDuration)
	assert.Equal(t, "es-ES", cfg.Language)
	assert.Equal(t, "ES", cfg.Region)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERIESJP_PORT", "9999")
	t.Setenv("SERIESJP_JWT_TTL", "2h")
	t.Setenv("SERIESJP_TMDB_REGION", "MX")
	t.Setenv("SERIESJP_TMDB_RPS", "5.5")
	t.Setenv("SERIESJP_GOOGLE_CLIENT_ID", "abc.apps.googleusercontent.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTDuration)
	assert.Equal(t, "MX", cfg.Region)
	assert.InDelta(t, 5.5, cfg.TMDBRateLimit, 1e-9)
	assert.Equal(t, "abc.apps.googleusercontent.com", cfg.GoogleClientID)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("SERIESJP_CACHE_TTL", "soon")
	_, err := LoadConfig()
	assert.Error(t, err)
}
