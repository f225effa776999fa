package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite wraps a database/sql handle opened with the modernc driver.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database file at path.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path not provided")
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	dsn := fmt.Sprintf("file:%s?%s", path, q.Encode())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection serializes writes instead of
	// surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	logger.Info("opened sqlite database", zap.String("path", path))
	return &SQLite{DB: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}

// Ping verifies database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("sqlite database not configured")
	}
	return s.DB.PingContext(ctx)
}
