// Package main is the TrendLens CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/analysis"
	"github.com/hyperjump/trendlens/internal/cli"
	"github.com/hyperjump/trendlens/internal/config"
	"github.com/hyperjump/trendlens/internal/export"
	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/news"
	"github.com/hyperjump/trendlens/internal/sentiment"
	"github.com/hyperjump/trendlens/internal/server"
	"github.com/hyperjump/trendlens/internal/storage"
	"github.com/hyperjump/trendlens/internal/summarize"
	"github.com/hyperjump/trendlens/internal/trends"
	"github.com/hyperjump/trendlens/internal/watcher"
	"github.com/hyperjump/trendlens/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/trendlens/config.yaml"
	defaultServerURL  = "http://localhost:5000"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file falls back to
// environment and built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults only).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
			cfg, err = config.Default()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "history":
		runHistory()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("trendlens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (provider calls, lexicon reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLoggerWithLevel(debugMode, cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var lexiconWatch *watcher.Watcher
	if components.Lexicon != nil && cfg.Sentiment.LexiconPath != "" && cfg.Sentiment.WatchLexiconOrDefault() {
		lexiconWatch, err = sentiment.WatchLexicon(watchCtx, components.Lexicon, cfg.Sentiment.LexiconPath, logger)
		if err != nil {
			logger.Warn("lexicon watch disabled", zap.String("path", cfg.Sentiment.LexiconPath), zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		components.QueryLog,
		&cfg.Server,
		server.Info{
			DatabasePath: cfg.Storage.DatabasePath,
			TrendSource:  components.Source.Name(),
			Version:      version,
			MaxKeywords:  cfg.Analysis.MaxKeywords,
		},
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if lexiconWatch != nil {
		lexiconWatch.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// splitKeywords joins the positional args into a keyword list. Each arg is one keyword
// unless it carries commas, so `analyze "machine learning"` and `analyze ai,crypto` both work.
func splitKeywords(args []string) []string {
	var parts []string
	for _, a := range args {
		parts = append(parts, strings.Split(a, ",")...)
	}
	return models.NormalizeKeywords(parts)
}

// argsReorder moves flags (and their values) that appear among the keywords to the
// front of the slice so that flag.Parse() sees them. Go's flag package stops at the
// first non-flag argument, so "trendlens analyze ai --output json" would otherwise
// leave --output unparsed. Keywords keep their relative order. Every analyze flag
// takes a value, so a flag without "=" consumes the next argument; -h, -help and
// anything after "--" are handled as-is.
func argsReorder(args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	terminated := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			positional = append(positional, args[i+1:]...)
			terminated = true
			i = len(args)
		case len(a) < 2 || a[0] != '-':
			positional = append(positional, a)
		default:
			flags = append(flags, a)
			name := strings.TrimLeft(a, "-")
			if strings.Contains(name, "=") || name == "h" || name == "help" {
				continue
			}
			if i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
		}
	}
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

func printAnalyzeUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: trendlens analyze [flags] <keyword> [keyword...]\n\n")
	fmt.Fprintf(fs.Output(), "Each argument is one keyword; comma-separated lists are split.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  trendlens analyze "machine learning"
  trendlens analyze ai,crypto,rust --output compact
  trendlens analyze --server "" golang     # run the pipeline in-process
`)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline in-process)")
	outputFormat := fs.String("output", "text", "output format: text, json or compact")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall timeout")
	fs.Usage = func() { printAnalyzeUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keywords := splitKeywords(fs.Args())
	if len(keywords) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		single *models.AnalysisResult
		batch  models.BatchResponse
	)
	if *serverURL != "" {
		client := cli.NewClient(*serverURL, *timeout)
		if len(keywords) == 1 {
			single, err = client.Analyze(ctx, keywords[0])
		} else {
			batch, err = client.AnalyzeMany(ctx, keywords)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analyze failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := directComponents(*configPath)
		defer logger.Sync()
		if len(keywords) == 1 {
			single, err = components.Pipeline.Analyze(ctx, keywords[0])
		} else {
			batch = components.Pipeline.AnalyzeMany(ctx, keywords)
		}
		// Close drains the pending query log write before exit.
		components.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analyze failed: %v\n", err)
			os.Exit(1)
		}
	}

	if single != nil {
		err = cli.WriteResult(os.Stdout, single, format)
	} else {
		err = cli.WriteBatch(os.Stdout, batch, format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the query log directly)")
	kw := fs.String("keyword", "", "only entries for this keyword (case-insensitive)")
	limit := fs.Int("limit", 20, "maximum entries")
	offset := fs.Int("offset", 0, "entries to skip")
	outputFormat := fs.String("output", "text", "output format: text, json or compact")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var resp *models.HistoryResponse
	if *serverURL != "" {
		resp, err = cli.NewClient(*serverURL, 30*time.Second).History(ctx, *kw, *offset, *limit)
	} else {
		var log *storage.SQLiteQueryLog
		log, err = openQueryLog(*configPath)
		if err == nil {
			resp, err = storage.History(ctx, log, *kw, *offset, *limit)
			_ = log.Close()
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "trendlens.xlsx", "output workbook path")
	kw := fs.String("keyword", "", "only entries for this keyword (case-insensitive)")
	limit := fs.Int("limit", 0, "maximum entries (0 = all)")
	_ = fs.Parse(os.Args[2:])

	log, err := openQueryLog(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	n, err := exportQueryLog(context.Background(), log, *out, *kw, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("exported %d entries to %s\n", n, *out)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var status *models.StatusResponse
	if *serverURL != "" {
		status, err = cli.NewClient(*serverURL, 10*time.Second).Status(ctx)
	} else {
		var cfg *config.Config
		cfg, _, err = loadConfig(*configPath)
		if err == nil {
			var log *storage.SQLiteQueryLog
			log, err = storage.NewSQLiteQueryLog(cfg.Storage.DatabasePath)
			if err == nil {
				status, err = statusFromLog(ctx, log, sourceName(cfg))
				_ = log.Close()
			}
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// exportQueryLog writes matching entries to a workbook at path and returns how many were written.
func exportQueryLog(ctx context.Context, log storage.QueryLog, path, keyword string, limit int) (int, error) {
	entries, err := storage.Page(ctx, log, keyword, 0, limit)
	if err != nil {
		return 0, err
	}
	if err := export.SaveWorkbook(path, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func statusFromLog(ctx context.Context, log *storage.SQLiteQueryLog, source string) (*models.StatusResponse, error) {
	count, err := log.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}
	status := &models.StatusResponse{
		Queries:      count,
		DatabasePath: log.Path(),
		TrendSource:  source,
		Version:      version,
	}
	if n, err := storage.DatabaseUsageBytes(log.Path()); err == nil {
		status.DiskUsageBytes = n
	}
	return status, nil
}

func openQueryLog(configPath string) (*storage.SQLiteQueryLog, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteQueryLog(cfg.Storage.DatabasePath)
}

// directComponents loads config and builds the full pipeline for in-process commands.
// It exits the process on failure.
func directComponents(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLoggerWithLevel(cfg.Debug, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func sourceName(cfg *config.Config) string {
	if cfg.Trends.Disabled {
		return trends.Disabled{}.Name()
	}
	return models.SourceGoogleTrends
}

// Components holds the wired application services.
type Components struct {
	QueryLog *storage.SQLiteQueryLog
	Recorder *storage.AsyncRecorder
	Source   trends.Source
	Lexicon  *sentiment.Lexicon
	Pipeline *analysis.Pipeline
}

// Close drains pending query log writes, then closes the database.
func (c *Components) Close() {
	if c.Recorder != nil {
		c.Recorder.Close()
		c.Recorder = nil
	}
	if c.QueryLog != nil {
		_ = c.QueryLog.Close()
		c.QueryLog = nil
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	queryLog, err := storage.NewSQLiteQueryLog(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize query log: %w", err)
	}
	recorder := storage.NewAsyncRecorder(queryLog, cfg.Storage.LogBuffer, logger)

	var source trends.Source = trends.Disabled{}
	if !cfg.Trends.Disabled {
		google := trends.NewGoogleTrends(trends.GoogleConfig{
			BaseURL:   cfg.Trends.BaseURL,
			Language:  cfg.Trends.Language,
			TZOffset:  cfg.Trends.TZOffset,
			Geo:       cfg.Trends.Geo,
			Timeframe: cfg.Trends.Timeframe,
			Logger:    logger,
		})
		throttled := trends.NewThrottled(google, cfg.Trends.RequestsPerMinute, cfg.Trends.MaxInFlight, cfg.Trends.Timeout)
		source = trends.NewCached(throttled, cfg.Trends.CacheSize, cfg.Trends.CacheTTL)
	}
	logger.Info("trend source initialized",
		zap.String("source", source.Name()),
		zap.Int("requests_per_minute", cfg.Trends.RequestsPerMinute),
		zap.Int("max_in_flight", cfg.Trends.MaxInFlight))

	simulated := sentiment.NewSimulated(uint64(cfg.Sentiment.Seed))
	resolver := &sentiment.Resolver{Primary: simulated, Empty: simulated}
	var lexicon *sentiment.Lexicon
	if cfg.Sentiment.Strategy != models.SentimentSimulated {
		lexicon = sentiment.NewLexicon(logger)
		if cfg.Sentiment.LexiconPath != "" {
			if err := lexicon.Reload(cfg.Sentiment.LexiconPath); err != nil {
				logger.Warn("lexicon file not loaded, using built-in lexicon",
					zap.String("path", cfg.Sentiment.LexiconPath), zap.Error(err))
			}
		}
		resolver.Primary = lexicon
	}

	var headlines analysis.HeadlineSource
	if cfg.News.Enabled {
		headlines = news.NewFeed(news.Config{
			FeedURL:  cfg.News.FeedURL,
			MaxItems: cfg.News.MaxItems,
			Timeout:  cfg.News.Timeout,
			Logger:   logger,
		})
	}

	pipeline := analysis.New(analysis.Options{
		Source:     source,
		Fallback:   trends.NewGenerator(cfg.Fallback.Seed, cfg.Fallback.Year),
		Summarizer: summarize.New(cfg.Summary.Sentences, cfg.Summary.FallbackChars, logger),
		Sentiment:  resolver,
		News:       headlines,
		Recorder:   recorder,
		Logger:     logger,
		Forecast:   cfg.Analysis.ForecastOrDefault(),
		Workers:    cfg.Analysis.Workers,
	})

	return &Components{
		QueryLog: queryLog,
		Recorder: recorder,
		Source:   source,
		Lexicon:  lexicon,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`trendlens - Keyword trend analysis service

Usage:
  trendlens server [flags]              Start the HTTP server
  trendlens analyze [flags] <keyword>   Analyze one or more keywords
  trendlens history [flags]             Show recent analyses from the query log
  trendlens export [flags]              Export the query log to an Excel workbook
  trendlens status [flags]              Show query log status
  trendlens version                     Show version
  trendlens help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/trendlens/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:5000). Use --server "" to run in-process.
  --output string    Output format: text, json or compact (default: text)
  --timeout duration Overall timeout (default: 2m)

History Flags:
  --keyword string   Only entries for this keyword
  --limit int        Maximum entries (default: 20)
  --offset int       Entries to skip
  --server string    Server URL. Use --server "" to read the query log directly.
  --output string    Output format: text, json or compact

Export Flags:
  --config string    Config file path
  --out string       Workbook path (default: trendlens.xlsx)
  --keyword string   Only entries for this keyword
  --limit int        Maximum entries (default: all)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL. Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  trendlens server
  trendlens analyze "machine learning"
  trendlens analyze ai,crypto --output compact
  trendlens analyze --server "" golang
  trendlens history --keyword ai --limit 5
  trendlens export --out trends.xlsx
  trendlens status --output json`)
}
