package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	sqliteMaxRetries = 3
	sqliteRetryDelay = 50 * time.Millisecond
)

// SQLiteRateRepository keeps per-day request counts in a SQLite database.
type SQLiteRateRepository struct {
	db *sql.DB
}

// NewSQLiteRateRepository opens (or creates) the database at dbPath and prepares the schema.
func NewSQLiteRateRepository(dbPath string) (*SQLiteRateRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRateRepository{db: db}
	if err = repo.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRateRepository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS rate_limits (
		user_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, day)
	);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetCount returns the stored count for the user and day, 0 if no record exists.
func (r *SQLiteRateRepository) GetCount(ctx context.Context, userID int64, day string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM rate_limits WHERE user_id = ? AND day = ?`, userID, day,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select rate count: %w", err)
	}
	return count, nil
}

// SaveCount replaces the stored count for the user and day.
func (r *SQLiteRateRepository) SaveCount(ctx context.Context, userID int64, day string, count int) error {
	query := `
		INSERT INTO rate_limits (user_id, day, count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`

	var err error
	for attempt := 0; attempt < sqliteMaxRetries; attempt++ {
		_, err = r.db.ExecContext(ctx, query, userID, day, count, time.Now().Unix())
		if err == nil || !isSQLiteConflictError(err) {
			break
		}
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("SQLite busy, retrying rate count save")
		time.Sleep(sqliteRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("upsert rate count: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRateRepository) Close() error {
	return r.db.Close()
}

// isSQLiteConflictError reports SQLITE_BUSY or "database is locked" errors, which are worth a retry.
func isSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
