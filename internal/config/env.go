package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ApplyEnv overlays TRENDLENS_* environment variables onto cfg. A .env file in the
// working directory is loaded first when present; variables already set win.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	if v := os.Getenv("TRENDLENS_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TRENDLENS_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	cfg.LogLevel = getEnv("TRENDLENS_LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Host = getEnv("TRENDLENS_HOST", cfg.Server.Host)
	if v := os.Getenv("TRENDLENS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TRENDLENS_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	cfg.Storage.DatabasePath = getEnv("TRENDLENS_DATABASE_PATH", cfg.Storage.DatabasePath)
	cfg.Trends.BaseURL = getEnv("TRENDLENS_TRENDS_BASE_URL", cfg.Trends.BaseURL)
	if v := os.Getenv("TRENDLENS_NEWS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TRENDLENS_NEWS_ENABLED: %w", err)
		}
		cfg.News.Enabled = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
