package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings read from the environment (and .env, when
// the caller loaded one first).
type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL selects PostgreSQL when set; otherwise SQLite at DBPath.
	DatabaseURL string `env:"DATABASE_URL"`
	DBPath      string `env:"DB_PATH"   envDefault:"data/app.db"`
	SeedPath    string `env:"SEED_PATH" envDefault:"data/seeds/shops.json"`

	// RedisAddr enables the snapshot cache when set.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	SnapshotTTL   time.Duration `env:"SNAPSHOT_TTL" envDefault:"5m"`

	// StorefrontRPS <= 0 disables storefront rate limiting.
	StorefrontRPS   float64  `env:"STOREFRONT_RPS"   envDefault:"20"`
	StorefrontBurst int      `env:"STOREFRONT_BURST" envDefault:"40"`
	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	CartConcurrency int `env:"CART_CONCURRENCY" envDefault:"4"`
}

// Load parses the environment into a Config and checks value ranges.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.StorefrontBurst < 1 {
		return Config{}, fmt.Errorf("load config: STOREFRONT_BURST must be at least 1, got %d", cfg.StorefrontBurst)
	}
	if cfg.CartConcurrency < 1 {
		cfg.CartConcurrency = 1
	}

	return cfg, nil
}

// UsePostgres reports whether DATABASE_URL selects the PostgreSQL store.
func (c Config) UsePostgres() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
