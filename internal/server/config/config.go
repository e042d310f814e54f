// Package config loads the cart store service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends the store can run on.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration for the cart store service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CARTSYNC_HTTP_PORT" envDefault:"8090"`

	// Storage backend: sqlite (single node, durable) or redis
	// (multi-node, cart-lifetime retention).
	StorageBackend string `env:"CARTSYNC_STORAGE" envDefault:"sqlite"`

	// SQLite
	DatabasePath string `env:"CARTSYNC_DB_PATH" envDefault:"cartsync.db"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours for the Redis backend (default: 7 days).
	CartTTLHours int `env:"CARTSYNC_CART_TTL_HOURS" envDefault:"168"`

	// Rate limit per client IP.
	RateLimit       int           `env:"CARTSYNC_RATE_LIMIT" envDefault:"300"`
	RateLimitWindow time.Duration `env:"CARTSYNC_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CartTTL returns the Redis retention as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StorageBackend != BackendSQLite && c.StorageBackend != BackendRedis {
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}
	return nil
}
