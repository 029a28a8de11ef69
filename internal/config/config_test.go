package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Auth.Required)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, "memory", cfg.RateLimit.Store)
	assert.Equal(t, int64(100), cfg.RateLimit.Read.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Read.Window)
	assert.Equal(t, int64(5), cfg.RateLimit.Auth.Limit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Auth.Window)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Widget.FetchTimeout)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_AUTH_REQUIRED", "true")
	t.Setenv("RATE_LIMIT_DISABLED", "1")
	t.Setenv("RATE_LIMIT_STORE", "Redis")
	t.Setenv("RATE_LIMIT_READ_MAX", "3")
	t.Setenv("RATE_LIMIT_READ_WINDOW", "60")
	t.Setenv("RATE_LIMIT_WRITE_WINDOW", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.com/, https://b.com")
	t.Setenv("WIDGET_FETCH_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Required)
	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, "redis", cfg.RateLimit.Store)
	assert.Equal(t, int64(3), cfg.RateLimit.Read.Limit)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Read.Window)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Write.Window)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Widget.FetchTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("RATE_LIMIT_STORE", "memcached")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_STORE", "memory")
	t.Setenv("RATE_LIMIT_AUTH_MAX", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_AUTH_MAX", "5")
	t.Setenv("APP_ENV", "production")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDatabaseConfig(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	db, err := cfg.LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, db.MaxConnLifetime)
	assert.Equal(t, int32(25), db.MaxConns)

	t.Setenv("DB_RETRY_DELAY", "soon")
	_, err = cfg.LoadDatabaseConfig()
	assert.Error(t, err)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, parseOrigins(" https://a.com/ , ,https://b.com"))
	assert.Nil(t, parseOrigins(""))
	assert.Nil(t, parseOrigins(" , "))
}
