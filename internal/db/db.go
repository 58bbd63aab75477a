// Package db provides SQL storage for annotations. PostgreSQL is used in
// deployments; SQLite files serve local runs and the CLI.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

// Supported dialects
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps a database/sql handle
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// ParseURL maps a DATABASE_URL to a driver name, data source and dialect.
// postgres:// and postgresql:// go to pgx; sqlite: and file: go to SQLite.
func ParseURL(databaseURL string) (driver, dsn string, dialect Dialect, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx", databaseURL, Postgres, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return "sqlite3", "file:" + strings.TrimPrefix(databaseURL, "sqlite://"), SQLite, nil
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return "sqlite3", "file:" + strings.TrimPrefix(databaseURL, "sqlite:"), SQLite, nil
	case strings.HasPrefix(databaseURL, "file:"):
		return "sqlite3", databaseURL, SQLite, nil
	}
	return "", "", "", fmt.Errorf("unsupported database url scheme: %q", redact(databaseURL))
}

// Connect opens the database and verifies the connection
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	driver, dsn, dialect, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == SQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{sql: sqlDB, dialect: dialect}, nil
}

// New wraps an existing handle. Used with sqlmock in tests.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{sql: sqlDB, dialect: dialect}
}

// Close closes the underlying handle
func (db *DB) Close() error {
	if db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// Dialect returns the SQL flavour of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping verifies the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if err := db.sql.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Migrate creates the annotation schema if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(db.dialect) {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "@"); i >= 0 {
		if j := strings.Index(databaseURL, "://"); j >= 0 && j < i {
			return databaseURL[:j+3] + "***" + databaseURL[i:]
		}
	}
	return databaseURL
}
