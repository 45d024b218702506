package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/orsreshef/travel-route-planner/internal/adapters/repositories"
)

// Open connects to Postgres through the pgx stdlib driver.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}

// OpenSQLite opens a local SQLite file. ":memory:" is accepted for tests.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("openDB: create directory for %q: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	// A single connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

// OpenFromEnv prefers Postgres when databaseURL is set and falls back to the
// SQLite file at dbPath. The schema is created before returning.
func OpenFromEnv(ctx context.Context, databaseURL, dbPath string) (*sql.DB, repositories.Dialect, error) {
	if databaseURL != "" {
		db, err := Open(databaseURL)
		if err != nil {
			return nil, "", err
		}
		if err := repositories.InitSchema(ctx, db, repositories.DialectPostgres); err != nil {
			db.Close()
			return nil, "", err
		}
		return db, repositories.DialectPostgres, nil
	}

	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, "", err
	}
	if err := repositories.InitSchema(ctx, db, repositories.DialectSQLite); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, repositories.DialectSQLite, nil
}
