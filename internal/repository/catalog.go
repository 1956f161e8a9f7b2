package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/models"
)

var (
	gameColumns     = []string{"id", "name", "path", "category_id", "user_id"}
	categoryColumns = []string{"id", "name", "user_id"}
)

// CatalogRepository implements category and game persistence. Every method is
// scoped by the userID it receives.
type CatalogRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sqlx.DB
	sb sq.StatementBuilderType
}

// NewCatalogRepository creates a new CatalogRepository using the provided connection.
func NewCatalogRepository(conn *sqlx.DB, driver db.Driver) *CatalogRepository {
	return &CatalogRepository{DB: conn, sb: builder(driver)}
}

// uniqueColumn maps a field onto its fixed table and column.
func uniqueColumn(field models.Field) (table, column string, err error) {
	switch field {
	case models.FieldGameName:
		return "games", "name", nil
	case models.FieldGamePath:
		return "games", "path", nil
	case models.FieldCategoryName:
		return "categories", "name", nil
	default:
		return "", "", fmt.Errorf("unsupported unique field %s", field)
	}
}

// IsUnique reports whether no row owned by userID has value in field.
func (r *CatalogRepository) IsUnique(ctx context.Context, userID int64, field models.Field, value string) (bool, error) {
	table, column, err := uniqueColumn(field)
	if err != nil {
		return false, err
	}

	n, err := count(ctx, r.DB, r.sb.Select("COUNT(*)").From(table).
		Where(sq.Eq{column: value}).
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return false, fmt.Errorf("IsUnique: %w", err)
	}
	return n == 0, nil
}

// InsertGame adds a game after checking, in the same transaction, that its name
// and path are unused by any user and that the category belongs to userID.
func (r *CatalogRepository) InsertGame(ctx context.Context, userID int64, name, path string, categoryID int64) (models.Game, error) {
	game := models.Game{Name: name, Path: path, CategoryID: categoryID, UserID: userID}

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := r.ensureGameFree(ctx, tx, "name", name, models.FieldGameName); err != nil {
			return err
		}
		if err := r.ensureGameFree(ctx, tx, "path", path, models.FieldGamePath); err != nil {
			return err
		}
		if err := r.ensureOwnedCategory(ctx, tx, userID, categoryID); err != nil {
			return err
		}

		id, err := insertReturningID(ctx, tx, r.sb.Insert("games").
			Columns("name", "path", "category_id", "user_id").
			Values(name, path, categoryID, userID))
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		game.ID = id
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	return game, nil
}

// ensureGameFree fails with a ConflictError when any user already has a game with value in column.
func (r *CatalogRepository) ensureGameFree(ctx context.Context, tx *sqlx.Tx, column, value string, field models.Field) error {
	n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("games").Where(sq.Eq{column: value}))
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if n > 0 {
		return &models.ConflictError{Field: field, Value: value}
	}
	return nil
}

func (r *CatalogRepository) ensureOwnedCategory(ctx context.Context, tx *sqlx.Tx, userID, categoryID int64) error {
	n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("categories").
		Where(sq.Eq{"id": categoryID}).
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d is not owned by user %d: %w", categoryID, userID, models.ErrConflict)
	}
	return nil
}

// InsertCategory adds a category for userID. The existence check and the insert
// share one transaction; a duplicate yields a ConflictError.
func (r *CatalogRepository) InsertCategory(ctx context.Context, userID int64, name string) (models.Category, error) {
	category := models.Category{Name: name, UserID: userID}

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("categories").
			Where(sq.Eq{"name": name}).
			Where(sq.Eq{"user_id": userID}))
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if n > 0 {
			return &models.ConflictError{Field: models.FieldCategoryName, Value: name}
		}

		id, err := insertReturningID(ctx, tx, r.sb.Insert("categories").
			Columns("name", "user_id").
			Values(name, userID))
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		category.ID = id
		return nil
	})
	if err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// ListCategories returns the user's categories, default first, then by name.
func (r *CatalogRepository) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	stmt, args, err := r.sb.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID}).
		OrderByClause("CASE WHEN name = ? THEN 0 ELSE 1 END", models.DefaultCategoryName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	categories := []models.Category{}
	if err := r.DB.SelectContext(ctx, &categories, stmt, args...); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return categories, nil
}

// CategoryByName returns the user's category with the given name or models.ErrNotFound.
func (r *CatalogRepository) CategoryByName(ctx context.Context, userID int64, name string) (models.Category, error) {
	return r.getCategory(ctx, r.DB, sq.Eq{"name": name}, userID)
}

// CategoryByID returns the user's category with the given id or models.ErrNotFound.
func (r *CatalogRepository) CategoryByID(ctx context.Context, userID, id int64) (models.Category, error) {
	return r.getCategory(ctx, r.DB, sq.Eq{"id": id}, userID)
}

func (r *CatalogRepository) getCategory(ctx context.Context, q sqlx.QueryerContext, by sq.Eq, userID int64) (models.Category, error) {
	stmt, args, err := r.sb.Select(categoryColumns...).
		From("categories").
		Where(by).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return models.Category{}, fmt.Errorf("build query: %w", err)
	}

	var category models.Category
	if err := sqlx.GetContext(ctx, q, &category, stmt, args...); err != nil {
		return models.Category{}, notFound(err, "category")
	}
	return category, nil
}

// DeleteCategory removes a non-default category that no game references.
// Games must be moved first with ReassignCategory; nothing cascades.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		category, err := r.getCategory(ctx, tx, sq.Eq{"id": id}, userID)
		if err != nil {
			return err
		}
		if category.IsDefault() {
			return models.ErrDefaultCategory
		}

		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("games").
			Where(sq.Eq{"category_id": id}).
			Where(sq.Eq{"user_id": userID}))
		if err != nil {
			return fmt.Errorf("count games: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("category %q still has %d games: %w", category.Name, n, models.ErrConflict)
		}

		return r.deleteCategoryRow(ctx, tx, userID, id)
	})
}

func (r *CatalogRepository) deleteCategoryRow(ctx context.Context, tx *sqlx.Tx, userID, id int64) error {
	if _, err := exec(ctx, tx, r.sb.Delete("categories").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"user_id": userID})); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ReassignCategory moves every game of userID from category fromID to toID and
// returns the number of moved games. toID must belong to userID.
func (r *CatalogRepository) ReassignCategory(ctx context.Context, userID, fromID, toID int64) (int64, error) {
	var moved int64
	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := r.getCategory(ctx, tx, sq.Eq{"id": toID}, userID); err != nil {
			return err
		}
		n, err := r.moveGames(ctx, tx, userID, fromID, toID)
		moved = n
		return err
	})
	return moved, err
}

func (r *CatalogRepository) moveGames(ctx context.Context, tx *sqlx.Tx, userID, fromID, toID int64) (int64, error) {
	n, err := exec(ctx, tx, r.sb.Update("games").
		Set("category_id", toID).
		Where(sq.Eq{"category_id": fromID}).
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return 0, fmt.Errorf("reassign games: %w", err)
	}
	return n, nil
}

// RemoveCategory moves the category's games to the default category and deletes
// it, all in one transaction.
func (r *CatalogRepository) RemoveCategory(ctx context.Context, userID, id int64) (int64, error) {
	var moved int64
	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		category, err := r.getCategory(ctx, tx, sq.Eq{"id": id}, userID)
		if err != nil {
			return err
		}
		if category.IsDefault() {
			return models.ErrDefaultCategory
		}

		def, err := r.getCategory(ctx, tx, sq.Eq{"name": models.DefaultCategoryName}, userID)
		if err != nil {
			return fmt.Errorf("default category: %w", err)
		}

		moved, err = r.moveGames(ctx, tx, userID, id, def.ID)
		if err != nil {
			return err
		}
		return r.deleteCategoryRow(ctx, tx, userID, id)
	})
	return moved, err
}

// RepairOrphans moves games of userID whose category is not one of the user's
// categories into the default category. It returns the number of repaired games
// and does nothing when the user has no categories.
func (r *CatalogRepository) RepairOrphans(ctx context.Context, userID int64) (int64, error) {
	var repaired int64
	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		stmt, args, err := r.sb.Select("id").From("categories").Where(sq.Eq{"user_id": userID}).ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		var valid []int64
		if err := tx.SelectContext(ctx, &valid, stmt, args...); err != nil {
			return fmt.Errorf("list category ids: %w", err)
		}
		if len(valid) == 0 {
			return nil
		}

		def, err := r.getCategory(ctx, tx, sq.Eq{"name": models.DefaultCategoryName}, userID)
		if err != nil {
			return fmt.Errorf("default category: %w", err)
		}

		repaired, err = exec(ctx, tx, r.sb.Update("games").
			Set("category_id", def.ID).
			Where(sq.Eq{"user_id": userID}).
			Where(sq.NotEq{"category_id": valid}))
		if err != nil {
			return fmt.Errorf("repair games: %w", err)
		}
		return nil
	})
	return repaired, err
}

// GetGame returns the user's game with the given name or models.ErrNotFound.
func (r *CatalogRepository) GetGame(ctx context.Context, userID int64, name string) (models.Game, error) {
	return r.getGame(ctx, r.DB, userID, name)
}

func (r *CatalogRepository) getGame(ctx context.Context, q sqlx.QueryerContext, userID int64, name string) (models.Game, error) {
	stmt, args, err := r.sb.Select(gameColumns...).
		From("games").
		Where(sq.Eq{"name": name}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return models.Game{}, fmt.Errorf("build query: %w", err)
	}

	var game models.Game
	if err := sqlx.GetContext(ctx, q, &game, stmt, args...); err != nil {
		return models.Game{}, notFound(err, "game "+name)
	}
	return game, nil
}

// ListGames returns all games of userID ordered by name.
func (r *CatalogRepository) ListGames(ctx context.Context, userID int64) ([]models.Game, error) {
	return r.selectGames(ctx, sq.Eq{"user_id": userID})
}

// ListGamesByCategory returns the games of userID in the given category ordered by name.
func (r *CatalogRepository) ListGamesByCategory(ctx context.Context, userID, categoryID int64) ([]models.Game, error) {
	return r.selectGames(ctx, sq.Eq{"user_id": userID}, sq.Eq{"category_id": categoryID})
}

func (r *CatalogRepository) selectGames(ctx context.Context, where ...sq.Eq) ([]models.Game, error) {
	query := r.sb.Select(gameColumns...).From("games")
	for _, w := range where {
		query = query.Where(w)
	}
	stmt, args, err := query.OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	games := []models.Game{}
	if err := r.DB.SelectContext(ctx, &games, stmt, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// UpdateGame renames a game and moves it to categoryID. Name uniqueness is only
// re-checked when the name changes; category ownership is always checked.
func (r *CatalogRepository) UpdateGame(ctx context.Context, userID int64, oldName, newName string, categoryID int64) (models.Game, error) {
	var game models.Game
	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		current, err := r.getGame(ctx, tx, userID, oldName)
		if err != nil {
			return err
		}
		if newName != oldName {
			if err := r.ensureGameFree(ctx, tx, "name", newName, models.FieldGameName); err != nil {
				return err
			}
		}
		if err := r.ensureOwnedCategory(ctx, tx, userID, categoryID); err != nil {
			return err
		}

		if _, err := exec(ctx, tx, r.sb.Update("games").
			Set("name", newName).
			Set("category_id", categoryID).
			Where(sq.Eq{"id": current.ID}).
			Where(sq.Eq{"user_id": userID})); err != nil {
			return fmt.Errorf("update game: %w", err)
		}

		current.Name = newName
		current.CategoryID = categoryID
		game = current
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	return game, nil
}

// DeleteGame removes the user's game with the given name.
func (r *CatalogRepository) DeleteGame(ctx context.Context, userID int64, name string) error {
	n, err := exec(ctx, r.DB, r.sb.Delete("games").
		Where(sq.Eq{"name": name}).
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return fmt.Errorf("DeleteGame: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("game %s: %w", name, models.ErrNotFound)
	}
	return nil
}
