package config

import (
	"errors"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads .env when present, then the process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", "err", err)
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return App{}, err
	}
	if cfg.DatabaseURL == "" {
		return App{}, errors.New("DATABASE_URL is required")
	}
	if cfg.MaxRetries < 0 {
		return App{}, errors.New("BOOKING_MAX_RETRIES must not be negative")
	}
	if cfg.Env == "prod" && cfg.JWTSecret == "local_dev_secret" {
		return App{}, errors.New("JWT_SECRET must be set in prod")
	}
	return cfg, nil
}
