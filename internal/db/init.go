// Package db opens the relational store behind the launcher and keeps its schema current.
package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names a supported backend. The value doubles as the database/sql driver name.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// sqlitePragmas enables foreign keys, waits on locks held by another launcher
// process and takes the write lock when a transaction begins.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Placeholder returns the bind-variable style for the driver.
func (d Driver) Placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// ParseDriver maps a config value onto a Driver.
func ParseDriver(name string) (Driver, error) {
	switch Driver(name) {
	case SQLite, Postgres:
		return Driver(name), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", name)
	}
}

// Open connects to the store, verifies the connection, upgrades a legacy SQLite
// schema and applies pending migrations.
// For SQLite dsn is a file path; for Postgres it is a postgres:// URL.
func Open(driver Driver, dsn string) (*sqlx.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s dsn is required", driver)
	}

	connStr, err := connString(driver, dsn)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(string(driver), connStr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := upgradeLegacySchema(context.Background(), conn, driver); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := RunMigrations(driver, connStr); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return conn, nil
}

func connString(driver Driver, dsn string) (string, error) {
	switch driver {
	case SQLite:
		return filepath.Clean(dsn) + "?" + sqlitePragmas, nil
	case Postgres:
		return dsn, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}
