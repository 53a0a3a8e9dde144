package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/trendlens/data/trendlens.db"
	}
	if cfg.Storage.LogBuffer == 0 {
		cfg.Storage.LogBuffer = 256
	}
	if cfg.Trends.BaseURL == "" {
		cfg.Trends.BaseURL = "https://trends.google.com"
	}
	if cfg.Trends.Language == "" {
		cfg.Trends.Language = "en-US"
	}
	// tz_offset 0 is valid (UTC); it is left as configured.
	if cfg.Trends.Timeframe == "" {
		cfg.Trends.Timeframe = "today 12-m"
	}
	if cfg.Trends.Timeout == 0 {
		cfg.Trends.Timeout = 10 * time.Second
	}
	if cfg.Trends.RequestsPerMinute == 0 {
		cfg.Trends.RequestsPerMinute = 30
	}
	if cfg.Trends.MaxInFlight == 0 {
		cfg.Trends.MaxInFlight = 1
	}
	if cfg.Trends.CacheTTL == 0 {
		cfg.Trends.CacheTTL = 10 * time.Minute
	}
	if cfg.Trends.CacheSize == 0 {
		cfg.Trends.CacheSize = 512
	}
	if cfg.Fallback.Year == 0 {
		cfg.Fallback.Year = 2024
	}
	if cfg.News.FeedURL == "" {
		cfg.News.FeedURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"
	}
	if cfg.News.MaxItems == 0 {
		cfg.News.MaxItems = 10
	}
	if cfg.News.Timeout == 0 {
		cfg.News.Timeout = 5 * time.Second
	}
	if cfg.Summary.Sentences == 0 {
		cfg.Summary.Sentences = 2
	}
	if cfg.Summary.FallbackChars == 0 {
		cfg.Summary.FallbackChars = 150
	}
	if cfg.Sentiment.Strategy == "" {
		cfg.Sentiment.Strategy = "lexicon"
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = 4
	}
	if cfg.Analysis.MaxKeywords == 0 {
		cfg.Analysis.MaxKeywords = 10
	}
}
