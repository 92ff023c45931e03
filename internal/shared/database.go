package shared

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDatabase is the journal path for a private, non-persistent journal.
const MemoryDatabase = ":memory:"

const busyTimeoutMillis = 5000

// NewDatabase opens the SQLite event journal at path, creating parent directories for a file journal.
//
// A file journal waits up to five seconds on a locked database, so a monitor and a journal
// query can share it.
func NewDatabase(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}

	dsn := path
	if path != MemoryDatabase {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("%s?_busy_timeout=%d", path, busyTimeoutMillis)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal %s: %w", path, err)
	}

	return db, nil
}

// ConfigureDatabase applies the [database] pool settings.
//
// Non-positive values mean one connection. An in-memory journal must stay on one connection,
// since every new connection sees an empty database.
func ConfigureDatabase(db *sql.DB, cfg DatabaseConfig) {
	open := max(cfg.MaxOpenConns, 1)
	idle := max(cfg.MaxIdleConns, 1)
	if cfg.Path == MemoryDatabase {
		open = 1
	}
	db.SetMaxOpenConns(open)
	db.SetMaxIdleConns(min(idle, open))
}
