// Package db persists generation history in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"time"

	// Pure Go SQLite driver, no CGO.
	_ "modernc.org/sqlite"
)

// ConnectionConfig holds SQLite connection settings.
type ConnectionConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeoutMS is how long a statement waits for locks.
	BusyTimeoutMS int

	// MaxOpenConns limits concurrent connections. SQLite behaves best
	// with a single writer.
	MaxOpenConns int
}

// DefaultConnectionConfig returns WAL-friendly defaults.
func DefaultConnectionConfig(path string) ConnectionConfig {
	return ConnectionConfig{
		Path:          path,
		BusyTimeoutMS: 5000,
		MaxOpenConns:  1,
	}
}

// Open opens the database with WAL mode and busy timeout configured.
func Open(cfg ConnectionConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db: database path is required")
	}

	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("db: failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeoutMS),
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("db: failed to apply %q: %w", pragma, err)
		}
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)
	conn.SetConnMaxLifetime(time.Duration(0))

	return conn, nil
}
