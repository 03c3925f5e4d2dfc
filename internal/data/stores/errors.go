package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
)

// IsBusyError reports whether err is SQLITE_BUSY, which means another
// process held the write lock past the busy timeout.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, task.ErrNotFound)
}

// IsCorruptionError reports whether err means the database file is damaged
// or is not a database at all.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database")
}

// RecoverFromCorruption moves the database in dataDir and its -wal and -shm
// files aside as tasks.db.corrupt.<timestamp>, so the next open starts from
// an empty schema. It returns the backup path. A missing database is not an
// error.
func RecoverFromCorruption(dataDir string) (string, error) {
	dbPath := filepath.Join(dataDir, db.FileName)
	backup := filepath.Join(dataDir, fmt.Sprintf("%s.corrupt.%s", db.FileName, time.Now().Format("20060102-150405")))

	if err := os.Rename(dbPath, backup); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("back up database: %w", err)
	}

	// -wal and -shm belong to the moved file.
	for _, suffix := range []string{"-wal", "-shm"} {
		src := dbPath + suffix
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, backup+suffix); err != nil {
			if rmErr := os.Remove(src); rmErr != nil {
				return "", fmt.Errorf("move %s aside: %w", suffix, err)
			}
		}
	}

	return backup, nil
}
