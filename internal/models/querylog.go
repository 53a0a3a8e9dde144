package models

import (
	"encoding/json"
	"time"
)

// QueryLogEntry is one persisted analysis. ID is assigned by the store.
type QueryLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	RequestID  string    `json:"request_id" db:"request_id"`
	Keyword    string    `json:"keyword" db:"keyword"`
	ResultJSON string    `json:"result_json" db:"result_json"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Result decodes ResultJSON.
func (e *QueryLogEntry) Result() (*AnalysisResult, error) {
	var res AnalysisResult
	if err := json.Unmarshal([]byte(e.ResultJSON), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// HistoryEntry is the decoded view of a QueryLogEntry served by the history API.
type HistoryEntry struct {
	ID        int64           `json:"id"`
	RequestID string          `json:"request_id,omitempty"`
	Keyword   string          `json:"keyword"`
	CreatedAt time.Time       `json:"created_at"`
	Result    *AnalysisResult `json:"result,omitempty"`
}

// History decodes the entry. A result that fails to decode is left nil.
func (e *QueryLogEntry) History() HistoryEntry {
	h := HistoryEntry{ID: e.ID, RequestID: e.RequestID, Keyword: e.Keyword, CreatedAt: e.CreatedAt}
	if res, err := e.Result(); err == nil {
		h.Result = res
	}
	return h
}

// HistoryResponse is a page of query log entries, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int64          `json:"total"`
}

// StatusResponse reports query log statistics.
type StatusResponse struct {
	Queries        int64  `json:"queries"`
	DatabasePath   string `json:"database_path,omitempty"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
	TrendSource    string `json:"trend_source,omitempty"`
	Version        string `json:"version,omitempty"`
}
