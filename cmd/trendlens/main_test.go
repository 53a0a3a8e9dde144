package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/trendlens/internal/export"
	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/storage"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after keywords are moved first",
			args:     []string{"machine learning", "--output", "json"},
			expected: []string{"--output", "json", "machine learning"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"--output", "json", "machine learning"},
			expected: []string{"--output", "json", "machine learning"},
		},
		{
			name:     "keyword only returns unchanged",
			args:     []string{"ai"},
			expected: []string{"ai"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"ai", "crypto", "-server", ""},
			expected: []string{"-server", "", "ai", "crypto"},
		},
		{
			name:     "flag between keywords keeps keyword order",
			args:     []string{"ai", "--output", "json", "beta"},
			expected: []string{"--output", "json", "ai", "beta"},
		},
		{
			name:     "equals form takes no value argument",
			args:     []string{"ai", "-output=json", "beta", "-timeout", "5s", "gamma"},
			expected: []string{"-output=json", "-timeout", "5s", "ai", "beta", "gamma"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"ai", "-output", "json", "--", "-x", "beta"},
			expected: []string{"-output", "json", "--", "ai", "-x", "beta"},
		},
		{
			name:     "dangling flag kept for flag.Parse to report",
			args:     []string{"ai", "--output"},
			expected: []string{"--output", "ai"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"single word", []string{"golang"}, []string{"golang"}},
		{"quoted phrase stays one keyword", []string{"machine learning"}, []string{"machine learning"}},
		{"several args", []string{"ai", "crypto"}, []string{"ai", "crypto"}},
		{"comma list", []string{"ai, crypto,rust"}, []string{"ai", "crypto", "rust"}},
		{"duplicates dropped", []string{"ai", "ai,crypto"}, []string{"ai", "crypto"}},
		{"blank args", []string{"  ", ","}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitKeywords(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitKeywords(%v) = %v, want %v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if filepath.Base(cfg.Storage.DatabasePath) != "test.db" || !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database path = %s, want absolute path ending in test.db", cfg.Storage.DatabasePath)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("workers default = %d, want 4", cfg.Analysis.Workers)
	}
}

func TestLoadConfig_missingExplicitPathFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadConfig_missingDefaultUsesDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("default config file exists on this machine")
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty for defaults", resolved)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
}

func seedQueryLog(t *testing.T) *storage.SQLiteQueryLog {
	t.Helper()
	log, err := storage.NewSQLiteQueryLog(filepath.Join(t.TempDir(), "trendlens.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })

	ctx := context.Background()
	for _, kw := range []string{"ai", "crypto", "AI"} {
		res := &models.AnalysisResult{
			Keyword:   kw,
			TrendData: models.TrendSeries{{Date: "2024-01-01", Value: 40}, {Date: "2024-02-01", Value: 60}},
			Sentiment: models.SentimentDistribution{Positive: 50, Neutral: 30, Negative: 20},
			Source:    models.SourceGoogleTrends,
		}
		entry, err := storage.NewEntry("req-"+kw, kw, res)
		if err != nil {
			t.Fatal(err)
		}
		if err := log.Record(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}
	return log
}

func TestExportQueryLog(t *testing.T) {
	log := seedQueryLog(t)
	out := filepath.Join(t.TempDir(), "export.xlsx")

	n, err := exportQueryLog(context.Background(), log, out, "crypto", 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("exported %d entries, want 1", n)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetQueries)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("queries sheet has %d rows, want header + 1", len(rows))
	}
	if rows[1][1] != "crypto" {
		t.Errorf("keyword cell = %q, want crypto", rows[1][1])
	}
}

func TestStatusFromLog(t *testing.T) {
	log := seedQueryLog(t)

	status, err := statusFromLog(context.Background(), log, "disabled")
	if err != nil {
		t.Fatal(err)
	}
	if status.Queries != 3 {
		t.Errorf("queries = %d, want 3", status.Queries)
	}
	if status.DatabasePath != log.Path() {
		t.Errorf("database path = %q, want %q", status.DatabasePath, log.Path())
	}
	if status.DiskUsageBytes <= 0 {
		t.Errorf("disk usage = %d, want > 0", status.DiskUsageBytes)
	}
	if status.TrendSource != "disabled" || status.Version != version {
		t.Errorf("unexpected status metadata: %+v", status)
	}
}
