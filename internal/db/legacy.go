package db

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
)

// upgradeLegacySchema renames the plain password column of databases created
// by earlier launcher versions so the versioned migrations can take over.
// Fresh databases and Postgres are left alone.
func upgradeLegacySchema(ctx context.Context, conn *sqlx.DB, driver Driver) error {
	if driver != SQLite {
		return nil
	}

	var columns []string
	if err := conn.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info('users')`); err != nil {
		return fmt.Errorf("inspect users table: %w", err)
	}
	if !slices.Contains(columns, "password") || slices.Contains(columns, "password_hash") {
		return nil
	}

	if _, err := conn.ExecContext(ctx, `ALTER TABLE users RENAME COLUMN password TO password_hash`); err != nil {
		return fmt.Errorf("rename legacy password column: %w", err)
	}
	return nil
}
