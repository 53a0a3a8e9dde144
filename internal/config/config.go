// Package config provides configuration loading and structs for the TrendLens service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Trends    TrendsConfig    `yaml:"trends"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	News      NewsConfig      `yaml:"news"`
	Summary   SummaryConfig   `yaml:"summary"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds the query log database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// LogBuffer is the number of pending query log writes held before new ones are dropped.
	LogBuffer int `yaml:"log_buffer"`
}

// TrendsConfig configures the Google Trends client and its outbound throttling.
type TrendsConfig struct {
	Disabled          bool          `yaml:"disabled"`
	BaseURL           string        `yaml:"base_url"`
	Language          string        `yaml:"language"`
	TZOffset          int           `yaml:"tz_offset"`
	Geo               string        `yaml:"geo"`
	Timeframe         string        `yaml:"timeframe"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxInFlight       int           `yaml:"max_in_flight"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	CacheSize         int           `yaml:"cache_size"`
}

// FallbackConfig configures the synthetic series generator.
type FallbackConfig struct {
	Seed int64 `yaml:"seed"`
	Year int   `yaml:"year"`
}

// NewsConfig configures the headline feed used as sentiment corpus.
type NewsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FeedURL  string        `yaml:"feed_url"`
	MaxItems int           `yaml:"max_items"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SummaryConfig configures the extractive summarizer.
type SummaryConfig struct {
	Sentences     int `yaml:"sentences"`
	FallbackChars int `yaml:"fallback_chars"`
}

// SentimentConfig selects and configures the sentiment estimator.
type SentimentConfig struct {
	// Strategy is "lexicon" (default) or "simulated".
	Strategy     string `yaml:"strategy"`
	LexiconPath  string `yaml:"lexicon_path"`
	WatchLexicon *bool  `yaml:"watch_lexicon"`
	Seed         int64  `yaml:"seed"`
}

// WatchLexiconOrDefault returns whether to hot-reload the lexicon file; defaults to true when unset.
func (s *SentimentConfig) WatchLexiconOrDefault() bool {
	if s.WatchLexicon != nil {
		return *s.WatchLexicon
	}
	return true
}

// AnalysisConfig configures the pipeline.
type AnalysisConfig struct {
	Workers     int   `yaml:"workers"`
	MaxKeywords int   `yaml:"max_keywords"`
	Forecast    *bool `yaml:"forecast"`
}

// ForecastOrDefault returns whether forecasting is enabled; defaults to true when unset.
func (a *AnalysisConfig) ForecastOrDefault() bool {
	if a.Forecast != nil {
		return *a.Forecast
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Sentiment.LexiconPath != "" {
		cfg.Sentiment.LexiconPath = expandPath(cfg.Sentiment.LexiconPath, configDir)
	}

	return &cfg, nil
}

// Default returns a config built only from environment overrides and defaults.
// Used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
