package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/metrics"
	"github.com/atinyakov/GameLauncher/internal/models"
)

// CatalogRepository defines the persistence operations needed by the Catalog.
// Every method is scoped to userID.
type CatalogRepository interface {
	IsUnique(ctx context.Context, userID int64, field models.Field, value string) (bool, error)
	InsertGame(ctx context.Context, userID int64, name, path string, categoryID int64) (models.Game, error)
	InsertCategory(ctx context.Context, userID int64, name string) (models.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)
	CategoryByName(ctx context.Context, userID int64, name string) (models.Category, error)
	CategoryByID(ctx context.Context, userID, id int64) (models.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
	ReassignCategory(ctx context.Context, userID, fromID, toID int64) (int64, error)
	RemoveCategory(ctx context.Context, userID, id int64) (int64, error)
	RepairOrphans(ctx context.Context, userID int64) (int64, error)
	GetGame(ctx context.Context, userID int64, name string) (models.Game, error)
	ListGames(ctx context.Context, userID int64) ([]models.Game, error)
	ListGamesByCategory(ctx context.Context, userID, categoryID int64) ([]models.Game, error)
	UpdateGame(ctx context.Context, userID int64, oldName, newName string, categoryID int64) (models.Game, error)
	DeleteGame(ctx context.Context, userID int64, name string) error
}

// UserResolver yields the logged-in user. Directory implements it.
type UserResolver interface {
	CurrentUserID() (int64, bool)
}

// HistoryRecorder remembers played games.
type HistoryRecorder interface {
	RecordPlay(name string) error
}

// Catalog implements the per-user game and category operations. Every method
// fails with models.ErrNotAuthenticated while nobody is logged in.
type Catalog struct {
	repo    CatalogRepository
	users   UserResolver
	history HistoryRecorder
	metrics metrics.Recorder
	log     *zap.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(repo CatalogRepository, users UserResolver, history HistoryRecorder, rec metrics.Recorder, log *zap.Logger) *Catalog {
	return &Catalog{repo: repo, users: users, history: history, metrics: rec, log: log}
}

func (c *Catalog) userID() (int64, error) {
	id, ok := c.users.CurrentUserID()
	if !ok {
		return 0, models.ErrNotAuthenticated
	}
	return id, nil
}

// observe counts a mutating operation. Rule violations are failures, anything
// else non-nil is a storage error.
func (c *Catalog) observe(op string, err error) {
	switch {
	case err == nil:
		c.metrics.RecordCatalogOp(op, metrics.ResultSuccess)
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrDefaultCategory),
		errors.Is(err, models.ErrNotAuthenticated):
		c.metrics.RecordCatalogOp(op, metrics.ResultFailure)
	default:
		c.metrics.RecordCatalogOp(op, metrics.ResultError)
		c.log.Error("catalog operation failed", zap.String("op", op), zap.Error(err))
	}
}

// IsUnique reports whether value is still free for field within the current user's catalog.
func (c *Catalog) IsUnique(ctx context.Context, field models.Field, value string) (bool, error) {
	uid, err := c.userID()
	if err != nil {
		return false, err
	}
	return c.repo.IsUnique(ctx, uid, field, value)
}

// AddGame inserts a game into one of the current user's categories.
// Name and path are unique across all users.
func (c *Catalog) AddGame(ctx context.Context, name, path string, categoryID int64) (game models.Game, err error) {
	defer func() { c.observe("add_game", err) }()

	uid, err := c.userID()
	if err != nil {
		return models.Game{}, err
	}
	return c.repo.InsertGame(ctx, uid, name, path, categoryID)
}

// AddCategory creates a category. It returns false when the user already has one with that name.
func (c *Catalog) AddCategory(ctx context.Context, name string) (added bool, err error) {
	defer func() { c.observe("add_category", err) }()

	uid, err := c.userID()
	if err != nil {
		return false, err
	}
	if _, err := c.repo.InsertCategory(ctx, uid, name); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteCategory removes an empty, non-default category.
func (c *Catalog) DeleteCategory(ctx context.Context, id int64) (err error) {
	defer func() { c.observe("delete_category", err) }()

	uid, err := c.userID()
	if err != nil {
		return err
	}
	return c.repo.DeleteCategory(ctx, uid, id)
}

// ReassignCategory moves all games of category fromID into toID and returns how many moved.
func (c *Catalog) ReassignCategory(ctx context.Context, fromID, toID int64) (moved int64, err error) {
	defer func() { c.observe("reassign_category", err) }()

	uid, err := c.userID()
	if err != nil {
		return 0, err
	}
	return c.repo.ReassignCategory(ctx, uid, fromID, toID)
}

// RemoveCategory deletes the named category after moving its games to the
// default category. It returns the number of moved games.
func (c *Catalog) RemoveCategory(ctx context.Context, name string) (moved int64, err error) {
	defer func() { c.observe("remove_category", err) }()

	uid, err := c.userID()
	if err != nil {
		return 0, err
	}
	category, err := c.repo.CategoryByName(ctx, uid, name)
	if err != nil {
		return 0, err
	}
	return c.repo.RemoveCategory(ctx, uid, category.ID)
}

// RepairOrphanCategories moves games that point at a category the user does
// not own back into the default category.
func (c *Catalog) RepairOrphanCategories(ctx context.Context) (repaired int64, err error) {
	defer func() { c.observe("repair_orphans", err) }()

	uid, err := c.userID()
	if err != nil {
		return 0, err
	}
	n, err := c.repo.RepairOrphans(ctx, uid)
	if err != nil {
		return 0, err
	}
	c.metrics.RecordOrphansRepaired(n)
	return n, nil
}

// ListCategories returns category names, the default category first and the rest alphabetically.
func (c *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, category.Name)
	}
	return names, nil
}

// Categories returns the current user's categories in display order.
func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}
	return c.repo.ListCategories(ctx, uid)
}

// CategoryIDByName resolves a category name to its id.
func (c *Catalog) CategoryIDByName(ctx context.Context, name string) (int64, error) {
	uid, err := c.userID()
	if err != nil {
		return 0, err
	}
	category, err := c.repo.CategoryByName(ctx, uid, name)
	if err != nil {
		return 0, err
	}
	return category.ID, nil
}

// CategoryNameByID resolves a category id to its name.
func (c *Catalog) CategoryNameByID(ctx context.Context, id int64) (string, error) {
	uid, err := c.userID()
	if err != nil {
		return "", err
	}
	category, err := c.repo.CategoryByID(ctx, uid, id)
	if err != nil {
		return "", err
	}
	return category.Name, nil
}

// GetGame returns the named game.
func (c *Catalog) GetGame(ctx context.Context, name string) (models.Game, error) {
	uid, err := c.userID()
	if err != nil {
		return models.Game{}, err
	}
	return c.repo.GetGame(ctx, uid, name)
}

// ListGames returns every game of the current user ordered by name.
func (c *Catalog) ListGames(ctx context.Context) ([]models.Game, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}
	return c.repo.ListGames(ctx, uid)
}

// ListGamesByCategory returns the games of one category ordered by name.
func (c *Catalog) ListGamesByCategory(ctx context.Context, categoryID int64) ([]models.Game, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}
	return c.repo.ListGamesByCategory(ctx, uid, categoryID)
}

// UpdateGame renames a game and moves it to categoryID.
func (c *Catalog) UpdateGame(ctx context.Context, oldName, newName string, categoryID int64) (game models.Game, err error) {
	defer func() { c.observe("update_game", err) }()

	uid, err := c.userID()
	if err != nil {
		return models.Game{}, err
	}
	return c.repo.UpdateGame(ctx, uid, oldName, newName, categoryID)
}

// DeleteGame removes the named game.
func (c *Catalog) DeleteGame(ctx context.Context, name string) (err error) {
	defer func() { c.observe("delete_game", err) }()

	uid, err := c.userID()
	if err != nil {
		return err
	}
	return c.repo.DeleteGame(ctx, uid, name)
}

// Play looks up the game and moves it to the front of the recent-games
// history. Starting the executable is left to the caller.
func (c *Catalog) Play(ctx context.Context, name string) (models.Game, error) {
	game, err := c.GetGame(ctx, name)
	if err != nil {
		return models.Game{}, err
	}
	if err := c.history.RecordPlay(game.Name); err != nil {
		return models.Game{}, fmt.Errorf("record play: %w", err)
	}
	c.metrics.RecordPlay()
	c.log.Info("game started", zap.String("game", game.Name), zap.String("path", game.Path))
	return game, nil
}
