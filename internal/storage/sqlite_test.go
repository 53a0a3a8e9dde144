package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/trendlens/internal/models"
)

func newTestLog(t *testing.T) *SQLiteQueryLog {
	t.Helper()
	store, err := NewSQLiteQueryLog(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(keyword string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Keyword:   keyword,
		TrendData: models.TrendSeries{{Date: "2024-01-01", Value: 10}, {Date: "2024-02-01", Value: 20}},
		Forecast:  []int{30, 40, 50},
		Sentiment: models.SentimentDistribution{Positive: 50, Neutral: 30, Negative: 20},
		Summary:   "Interest is rising.",
		Source:    models.SourceSynthetic,
		Synthetic: true,
	}
}

func TestSQLiteQueryLog_RecordAndGet(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	entry, err := NewEntry("req-1", "golang", sampleResult("golang"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if entry.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Keyword != "golang" || got.RequestID != "req-1" {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should round-trip")
	}
	res, err := got.Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.TrendData) != 2 || res.Forecast[2] != 50 || !res.Synthetic {
		t.Errorf("decoded result = %+v", res)
	}

	_, err = store.Get(ctx, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteQueryLog_ListNewestFirst(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	for _, kw := range []string{"a", "b", "A", "c"} {
		e, _ := NewEntry("", kw, sampleResult(kw))
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.List(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Keyword != "c" || list[1].Keyword != "A" {
		t.Errorf("List(0,2) = %v", keywords(list))
	}

	list, _ = store.List(ctx, 3, 10)
	if len(list) != 1 || list[0].Keyword != "a" {
		t.Errorf("List(3,10) = %v", keywords(list))
	}

	all, _ := store.List(ctx, 0, 0)
	if len(all) != 4 {
		t.Errorf("List with no limit returned %d entries", len(all))
	}

	byKw, err := store.ListByKeyword(ctx, "a", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(byKw) != 2 {
		t.Errorf("ListByKeyword(a) = %v", keywords(byKw))
	}
}

func TestSQLiteQueryLog_Count(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("Count: %v, %d", err, n)
	}
	e, _ := NewEntry("", "x", sampleResult("x"))
	_ = store.Record(ctx, e)
	n, _ = store.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestSQLiteQueryLog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := NewSQLiteQueryLog(path)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := NewEntry("", "persisted", sampleResult("persisted"))
	if err := store.Record(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	store, err = NewSQLiteQueryLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if store.Path() != path {
		t.Errorf("Path() = %q", store.Path())
	}
	n, _ := store.Count(context.Background())
	if n != 1 {
		t.Errorf("after reopen: %d entries", n)
	}
}

func keywords(entries []*models.QueryLogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Keyword
	}
	return out
}

func TestHistory(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()
	for _, kw := range []string{"ai", "crypto", "AI"} {
		e, _ := NewEntry("req-"+kw, kw, sampleResult(kw))
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := History(ctx, store, "", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("History = %d entries, total %d; want 3, 3", len(all.Entries), all.Total)
	}
	if all.Entries[0].Keyword != "AI" || all.Entries[0].RequestID != "req-AI" {
		t.Errorf("newest entry = %+v", all.Entries[0])
	}
	if all.Entries[0].Result == nil || all.Entries[0].Result.Sentiment.Positive != 50 {
		t.Errorf("entry result not decoded: %+v", all.Entries[0])
	}

	byKw, err := History(ctx, store, " ai ", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(byKw.Entries) != 2 || byKw.Total != 2 {
		t.Errorf("keyword filter = %d entries, total %d", len(byKw.Entries), byKw.Total)
	}

	page, err := Page(ctx, store, "", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Keyword != "crypto" {
		t.Errorf("Page(1,1) = %v", keywords(page))
	}
}

func TestHistory_TotalCountsOnlyMatchingKeyword(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()
	for _, kw := range []string{"a", "b", "b", "b"} {
		e, _ := NewEntry("req-"+kw, kw, sampleResult(kw))
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		keyword string
		total   int64
	}{
		{"a", 1},
		{"B", 3},
		{"c", 0},
		{"", 4},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			resp, err := History(ctx, store, tt.keyword, 0, 1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.Total != tt.total {
				t.Errorf("History(%q).Total = %d, want %d", tt.keyword, resp.Total, tt.total)
			}
			n, err := store.CountByKeyword(ctx, tt.keyword)
			if tt.keyword != "" && (err != nil || n != tt.total) {
				t.Errorf("CountByKeyword(%q) = %d, %v", tt.keyword, n, err)
			}
		})
	}
}
