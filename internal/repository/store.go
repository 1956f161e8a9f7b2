// Package repository provides persistence for users, categories and games
// over SQLite or PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/models"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func builder(driver db.Driver) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(driver.Placeholder())
}

// withTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back otherwise.
func withTx(ctx context.Context, conn *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", translateError(err))
	}
	return nil
}

// isConstraintViolation reports whether err is a unique or foreign-key failure
// raised by either backend.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation || pqErr.Code == pqForeignKeyViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		}
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// translateError maps constraint violations onto models.ErrConflict and leaves
// everything else untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return err
}

// notFound maps sql.ErrNoRows onto models.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}

// count runs a COUNT(*) statement built by query.
func count(ctx context.Context, q sqlx.QueryerContext, query sq.SelectBuilder) (int64, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, stmt, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// exec runs a write statement and returns the number of affected rows.
func exec(ctx context.Context, e sqlx.ExecerContext, query sq.Sqlizer) (int64, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := e.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func insertReturningID(ctx context.Context, q sqlx.QueryerContext, query sq.InsertBuilder) (int64, error) {
	stmt, args, err := query.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var id int64
	if err := q.QueryRowxContext(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}
