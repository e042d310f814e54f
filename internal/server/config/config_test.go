package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "cartsync.db", cfg.DatabasePath)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL())
	assert.Equal(t, 300, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CARTSYNC_HTTP_PORT", "9000")
	t.Setenv("CARTSYNC_STORAGE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CARTSYNC_CART_TTL_HOURS", "24")
	t.Setenv("CARTSYNC_RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.CartTTL())
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port out of range", key: "CARTSYNC_HTTP_PORT", value: "70000"},
		{name: "unknown backend", key: "CARTSYNC_STORAGE", value: "cassandra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
