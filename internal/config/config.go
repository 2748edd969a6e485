package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret       string
	DatabaseDSN  string
	HTTPPort     string
	LogLevel     slog.Level
	SeedPath     string
	RateLimit    float64 // requests per second per client
	RateBurst    int64
	ExpiryWindow int // days ahead the expiry sweep looks
}

// Load reads configuration from environment variables with reasonable
// defaults, validating values that would break the server later.
func Load() (Config, error) {
	cfg := Config{
		Secret:       getEnv("SECRET", "dev_secret"),
		DatabaseDSN:  getEnv("DATABASE_DSN", "file:sihacare.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		SeedPath:     getEnv("SEED_PATH", ""),
		RateLimit:    25,
		RateBurst:    100,
		ExpiryWindow: 30,
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		return cfg, fmt.Errorf("invalid HTTP_PORT %q: %w", cfg.HTTPPort, err)
	}

	switch level := getEnv("LOG_LEVEL", "info"); level {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return cfg, fmt.Errorf("invalid LOG_LEVEL %q", level)
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return cfg, fmt.Errorf("invalid RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}

	if v := os.Getenv("EXPIRY_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return cfg, fmt.Errorf("invalid EXPIRY_WINDOW_DAYS %q", v)
		}
		cfg.ExpiryWindow = days
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
