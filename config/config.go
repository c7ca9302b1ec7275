package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"5000"`
	Env  string `env:"ENV" envDefault:"development"`

	// Empty DSNs select the in-memory backends (local development, tests).
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// CatalogBackend selects where stock lives: "postgres", "dynamodb" or
	// "memory". Defaults to the database when a DSN is configured.
	CatalogBackend string `env:"CATALOG_BACKEND"`
	DDBTable       string `env:"DDB_TABLE" envDefault:"products"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`

	CartTTL            time.Duration `env:"CART_TTL" envDefault:"720h"`
	MaxQtyPerItem      int           `env:"MAX_QTY_PER_ITEM" envDefault:"25"`
	CheckoutMaxRetries int           `env:"CHECKOUT_MAX_RETRIES" envDefault:"3"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if cfg.CatalogBackend == "" {
		if cfg.DatabaseURL != "" {
			cfg.CatalogBackend = "postgres"
		} else {
			cfg.CatalogBackend = "memory"
		}
	}
	return cfg, nil
}
