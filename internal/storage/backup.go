package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupInfo describes a completed backup.
type BackupInfo struct {
	CreatedAt time.Time      `json:"created_at"`
	RowCounts map[string]int `json:"row_counts"`
	Path      string         `json:"path"`
	Size      int64          `json:"size"`
}

// ErrBackupExists is returned when the backup destination is already taken.
var ErrBackupExists = errors.New("backup destination already exists")

// Backup writes a consistent copy of the database to destPath and verifies
// its integrity. destPath must be absolute and must not exist.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return BackupInfo{}, err
	}
	if s.dbPath == ":memory:" {
		return BackupInfo{}, errors.New("in-memory databases cannot be backed up")
	}
	if err := validateBackupPath(destPath); err != nil {
		return BackupInfo{}, err
	}
	if _, err := os.Stat(destPath); err == nil {
		return BackupInfo{}, fmt.Errorf("%w: %s", ErrBackupExists, destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 -- destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to write backup: %w", err)
	}

	if err := verifyIntegrity(ctx, destPath); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			slog.Error("Failed to remove corrupt backup", "path", destPath, "error", rmErr)
		}
		return BackupInfo{}, fmt.Errorf("backup failed verification: %w", err)
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to stat backup: %w", err)
	}

	counts, err := s.rowCounts(ctx)
	if err != nil {
		return BackupInfo{}, err
	}

	return BackupInfo{
		CreatedAt: s.now(),
		RowCounts: counts,
		Path:      destPath,
		Size:      stat.Size(),
	}, nil
}

func validateBackupPath(path string) error {
	if !filepath.IsAbs(path) || filepath.Clean(path) != path {
		return fmt.Errorf("invalid backup path %q: must be absolute and clean", path)
	}
	if strings.ContainsAny(path, `'";`) {
		return fmt.Errorf("invalid backup path %q: contains forbidden characters", path)
	}
	return nil
}

func (s *SQLiteStorage) rowCounts(ctx context.Context) (map[string]int, error) {
	queries := map[string]string{
		"transactions": "SELECT COUNT(*) FROM transactions",
		"users":        "SELECT COUNT(*) FROM users",
	}

	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
