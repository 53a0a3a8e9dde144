package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/config"
	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/storage"
)

type mockAnalyzer struct {
	mu       sync.Mutex
	calls    int
	recorded []string
}

func (m *mockAnalyzer) result(keyword string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Keyword:   keyword,
		TrendData: models.TrendSeries{{Date: "2024-01-01", Value: 1}},
		Sentiment: models.SentimentDistribution{Neutral: 100},
		Source:    models.SourceSynthetic,
		Synthetic: true,
	}
}

func (m *mockAnalyzer) Analyze(_ context.Context, keyword string) (*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := models.ValidateKeyword(keyword); err != nil {
		return nil, err
	}
	m.recorded = append(m.recorded, keyword)
	return m.result(keyword), nil
}

func (m *mockAnalyzer) AnalyzeMany(_ context.Context, keywords []string) models.BatchResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	resp := models.BatchResponse{}
	for _, kw := range keywords {
		if err := models.ValidateKeyword(kw); err != nil {
			resp[kw] = models.BatchEntry{Error: err.Error()}
			continue
		}
		m.recorded = append(m.recorded, kw)
		resp[kw] = models.BatchEntry{Result: m.result(kw)}
	}
	return resp
}

func newTestServer(t *testing.T, analyzer Analyzer) (*Server, *storage.SQLiteQueryLog) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")
	store, err := storage.NewSQLiteQueryLog(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cfg := &config.ServerConfig{Port: 5000, AllowedOrigins: []string{"http://localhost:3000"}}
	info := Info{DatabasePath: dbPath, TrendSource: "google_trends", Version: "test", MaxKeywords: 3}
	return NewServer(analyzer, store, cfg, info, zap.NewNop()), store
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleAnalyze_Single(t *testing.T) {
	mock := &mockAnalyzer{}
	srv, _ := newTestServer(t, mock)
	h := srv.Router()

	for _, path := range []string{"/api/v1/analyze", "/analyze"} {
		w := post(t, h, path, `{"keyword":" golang "}`)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status: got %d, body: %s", path, w.Code, w.Body.String())
		}
		var res models.AnalysisResult
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		if res.Keyword != "golang" || len(res.TrendData) != 1 || !res.Synthetic {
			t.Errorf("%s result: %+v", path, res)
		}
	}
}

func TestHandleAnalyze_EmptyKeywordRejected(t *testing.T) {
	mock := &mockAnalyzer{}
	srv, _ := newTestServer(t, mock)
	h := srv.Router()

	for _, body := range []string{`{"keyword":""}`, `{"keyword":"   "}`, `{}`, `{"keywords":[" ",""]}`} {
		w := post(t, h, "/api/v1/analyze", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, w.Code)
		}
		var out map[string]string
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil || out["error"] == "" {
			t.Errorf("%s: expected error body, got %v", body, out)
		}
	}
	if mock.calls != 0 || len(mock.recorded) != 0 {
		t.Errorf("pipeline should not run: calls=%d recorded=%v", mock.calls, mock.recorded)
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, &mockAnalyzer{})
	h := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"keyword":`},
		{"nul keyword", `{"keyword":"bad\u0000input"}`},
		{"too many keywords", `{"keywords":["a","b","c","d"]}`},
		{"both shapes", `{"keyword":"a","keywords":["b"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := post(t, h, "/api/v1/analyze", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleAnalyze_BatchIsolatesErrors(t *testing.T) {
	srv, _ := newTestServer(t, &mockAnalyzer{})
	w := post(t, srv.Router(), "/api/v1/analyze", `{"keywords":["ai","bad\u0000input","crypto"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp models.BatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 3 {
		t.Fatalf("entries: %v", resp)
	}
	if resp["ai"].Result == nil || resp["crypto"].Result == nil {
		t.Errorf("valid keywords should have results: %+v", resp)
	}
	if resp["bad\x00input"].Error == "" {
		t.Errorf("NUL keyword should carry an error: %+v", resp["bad\x00input"])
	}
}

func TestHandleHistory(t *testing.T) {
	srv, store := newTestServer(t, &mockAnalyzer{})
	ctx := context.Background()
	for _, kw := range []string{"ai", "golang", "ai"} {
		e, _ := storage.NewEntry("req", kw, &models.AnalysisResult{Keyword: kw})
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	h := srv.Router()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/history?keyword=ai&limit=10", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Entries) != 2 || out.Total != 2 {
		t.Errorf("history: %+v", out)
	}
	if out.Entries[0].Result == nil || out.Entries[0].Result.Keyword != "ai" {
		t.Errorf("entry result not decoded: %+v", out.Entries[0])
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=abc", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid limit: got %d", w.Code)
	}
}

func TestHandleHistory_NotEnabled(t *testing.T) {
	srv := NewServer(&mockAnalyzer{}, nil, &config.ServerConfig{}, Info{}, nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	srv.handleHistory(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	srv, store := newTestServer(t, &mockAnalyzer{})
	e, _ := storage.NewEntry("", "ai", &models.AnalysisResult{Keyword: "ai"})
	_ = store.Record(context.Background(), e)
	h := srv.Router()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	var status models.StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Queries != 1 || status.DiskUsageBytes <= 0 || status.Version != "test" {
		t.Errorf("status: %+v", status)
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &mockAnalyzer{})
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, &mockAnalyzer{})
	h := srv.Router()

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("preflight: got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin: %q", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte(`{"keyword":"ai"}`)))
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got header %q", got)
	}
}
