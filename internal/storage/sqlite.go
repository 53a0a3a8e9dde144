package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/trendlens/internal/models"
)

// SQLiteQueryLog implements QueryLog using SQLite.
type SQLiteQueryLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteQueryLog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteQueryLog(dbPath string) (*SQLiteQueryLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteQueryLog{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL DEFAULT '',
		keyword TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_queries_keyword ON queries(keyword);
	CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteQueryLog) Path() string { return s.path }

// Record inserts an entry and sets its ID.
func (s *SQLiteQueryLog) Record(ctx context.Context, entry *models.QueryLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (request_id, keyword, result_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		entry.RequestID, entry.Keyword, entry.ResultJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// Get returns an entry by ID.
func (s *SQLiteQueryLog) Get(ctx context.Context, id int64) (*models.QueryLogEntry, error) {
	var e models.QueryLogEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, keyword, result_json, created_at
		 FROM queries WHERE id = ?`, id,
	).Scan(&e.ID, &e.RequestID, &e.Keyword, &e.ResultJSON, &e.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns entries newest first with offset and limit.
func (s *SQLiteQueryLog) List(ctx context.Context, offset, limit int) ([]*models.QueryLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, keyword, result_json, created_at
		 FROM queries ORDER BY id DESC LIMIT ? OFFSET ?`,
		limitOrAll(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListByKeyword returns entries for keyword (case-insensitive) newest first.
func (s *SQLiteQueryLog) ListByKeyword(ctx context.Context, keyword string, offset, limit int) ([]*models.QueryLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, keyword, result_json, created_at
		 FROM queries WHERE keyword = ? COLLATE NOCASE ORDER BY id DESC LIMIT ? OFFSET ?`,
		keyword, limitOrAll(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*models.QueryLogEntry, error) {
	defer rows.Close()
	var entries []*models.QueryLogEntry
	for rows.Next() {
		var e models.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Keyword, &e.ResultJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// Count returns the total number of entries.
func (s *SQLiteQueryLog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries`).Scan(&count)
	return count, err
}

// CountByKeyword returns the number of entries for keyword (case-insensitive).
func (s *SQLiteQueryLog) CountByKeyword(ctx context.Context, keyword string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queries WHERE keyword = ? COLLATE NOCASE`, keyword,
	).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteQueryLog) Close() error {
	return s.db.Close()
}
