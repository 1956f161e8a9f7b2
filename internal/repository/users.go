package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/models"
)

// UserRepository implements user account persistence.
type UserRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
	sb sq.StatementBuilderType
}

// NewUserRepository creates a new UserRepository with the given database connection.
// driver selects the placeholder style of generated statements.
func NewUserRepository(conn *sqlx.DB, driver db.Driver) *UserRepository {
	return &UserRepository{DB: conn, sb: builder(driver)}
}

// UserExists checks whether a user with the specified login exists in the database.
func (r *UserRepository) UserExists(ctx context.Context, login string) (bool, error) {
	n, err := count(ctx, r.DB, r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"login": login}))
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return n > 0, nil
}

// CreateUser inserts the user row and its default category in one transaction.
// A login that is already taken, including one inserted by a racing process,
// yields models.ErrConflict and leaves no partial rows behind.
func (r *UserRepository) CreateUser(ctx context.Context, login, passwordHash string) (models.User, error) {
	user := models.User{Login: login, PasswordHash: passwordHash}

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"login": login}))
		if err != nil {
			return fmt.Errorf("check login: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("login %q: %w", login, models.ErrConflict)
		}

		id, err := insertReturningID(ctx, tx, r.sb.Insert("users").
			Columns("login", "password_hash").
			Values(login, passwordHash))
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		user.ID = id

		if _, err := exec(ctx, tx, r.sb.Insert("categories").
			Columns("name", "user_id").
			Values(models.DefaultCategoryName, id)); err != nil {
			return fmt.Errorf("insert default category: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindByLogin returns the user with the given login or models.ErrNotFound.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	stmt, args, err := r.sb.Select("id", "login", "password_hash").
		From("users").
		Where(sq.Eq{"login": login}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build query: %w", err)
	}

	var user models.User
	if err := r.DB.GetContext(ctx, &user, stmt, args...); err != nil {
		return models.User{}, notFound(err, "user "+login)
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored hash for the user.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	n, err := exec(ctx, r.DB, r.sb.Update("users").
		Set("password_hash", passwordHash).
		Where(sq.Eq{"id": userID}))
	if err != nil {
		return fmt.Errorf("UpdatePasswordHash: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	return nil
}
