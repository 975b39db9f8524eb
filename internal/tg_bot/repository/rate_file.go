package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FileRateRepository stores one small file per (user, day) holding the request count.
// Files are named "<userID>_<YYYY-MM-DD>" and are never deleted: a new day simply
// uses a new key.
type FileRateRepository struct {
	dir string // Directory holding rate files
}

// NewFileRateRepository creates the storage directory if needed and returns the repository.
func NewFileRateRepository(dir string) (*FileRateRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create rate limits directory %s: %w", dir, err)
	}
	return &FileRateRepository{dir: dir}, nil
}

func (r *FileRateRepository) path(userID int64, day string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d_%s", userID, day))
}

// GetCount returns the stored count for the user and day, 0 if no record exists.
func (r *FileRateRepository) GetCount(_ context.Context, userID int64, day string) (int, error) {
	data, err := os.ReadFile(r.path(userID, day))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read rate file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse rate file %s: %w", r.path(userID, day), err)
	}
	return count, nil
}

// SaveCount replaces the stored count for the user and day.
func (r *FileRateRepository) SaveCount(_ context.Context, userID int64, day string, count int) error {
	startTime := time.Now()
	target := r.path(userID, day)

	// Write to a temporary file first
	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, []byte(strconv.Itoa(count)), 0644); err != nil {
		return fmt.Errorf("write temp rate file %s: %w", tempPath, err)
	}
	// Atomically rename a temp file to final destination
	if err := os.Rename(tempPath, target); err != nil {
		return fmt.Errorf("rename temp rate file %s to %s: %w", tempPath, target, err)
	}

	logrus.WithField("user_id", userID).Debugf("Saved rate count %d for %s in %v", count, day, time.Since(startTime))
	return nil
}

// Close is a no-op; it lets the file and sqlite repositories share one interface.
func (r *FileRateRepository) Close() error {
	return nil
}
