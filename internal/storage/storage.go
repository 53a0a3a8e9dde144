// Package storage persists the analysis query log.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/trendlens/internal/models"
)

// ErrNotFound is returned when a query log entry does not exist.
var ErrNotFound = errors.New("query log entry not found")

// QueryLog defines query log persistence operations.
type QueryLog interface {
	Record(ctx context.Context, entry *models.QueryLogEntry) error
	Get(ctx context.Context, id int64) (*models.QueryLogEntry, error)
	// List returns entries newest first.
	List(ctx context.Context, offset, limit int) ([]*models.QueryLogEntry, error)
	ListByKeyword(ctx context.Context, keyword string, offset, limit int) ([]*models.QueryLogEntry, error)

	Count(ctx context.Context) (int64, error)
	CountByKeyword(ctx context.Context, keyword string) (int64, error)
	Close() error
}

// NewEntry serializes result into a log entry stamped with the current time.
func NewEntry(requestID, keyword string, result *models.AnalysisResult) (*models.QueryLogEntry, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &models.QueryLogEntry{
		RequestID:  requestID,
		Keyword:    keyword,
		ResultJSON: string(data),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Page lists entries newest first, filtered by keyword (case-insensitive) when it is not blank.
func Page(ctx context.Context, log QueryLog, keyword string, offset, limit int) ([]*models.QueryLogEntry, error) {
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		return log.ListByKeyword(ctx, keyword, offset, limit)
	}
	return log.List(ctx, offset, limit)
}

// History returns one decoded page of the log together with the number of entries the
// keyword filter matches.
func History(ctx context.Context, log QueryLog, keyword string, offset, limit int) (*models.HistoryResponse, error) {
	entries, err := Page(ctx, log, keyword, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	var total int64
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		total, err = log.CountByKeyword(ctx, keyword)
	} else {
		total, err = log.Count(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}
	resp := &models.HistoryResponse{Entries: make([]models.HistoryEntry, 0, len(entries)), Total: total}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, e.History())
	}
	return resp, nil
}
