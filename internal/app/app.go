// Package app wires the launcher's stores and services from Options. Both the
// CLI and the daemon build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/config"
	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/metrics"
	"github.com/atinyakov/GameLauncher/internal/models"
	"github.com/atinyakov/GameLauncher/internal/repository"
	"github.com/atinyakov/GameLauncher/internal/service"
	"github.com/atinyakov/GameLauncher/internal/storage"
)

// App holds the open database and the services built on it.
type App struct {
	Options     *config.Options
	DB          *sqlx.DB
	Identity    *storage.IdentityStore
	Preferences *storage.Preferences
	History     *storage.History
	Directory   *service.Directory
	Catalog     *service.Catalog
	Log         *zap.Logger
}

// New opens the database, migrates it, restores the persisted session and
// repairs the restored user's orphaned games.
func New(ctx context.Context, opts *config.Options, rec metrics.Recorder, log *zap.Logger) (*App, error) {
	if err := opts.EnsureDataDir(); err != nil {
		return nil, err
	}
	driver, err := db.ParseDriver(opts.Driver)
	if err != nil {
		return nil, err
	}
	historyScope, err := storage.ParseScope(opts.HistoryScope)
	if err != nil {
		return nil, fmt.Errorf("history scope: %w", err)
	}
	settingsScope, err := storage.ParseScope(opts.SettingsScope)
	if err != nil {
		return nil, fmt.Errorf("settings scope: %w", err)
	}

	conn, err := db.Open(driver, opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Options:     opts,
		DB:          conn,
		Identity:    storage.NewIdentityStore(opts.DataDir, log),
		Preferences: storage.NewPreferences(opts.DataDir, settingsScope, log),
		History:     storage.NewHistory(opts.DataDir, historyScope, log),
		Log:         log,
	}
	if err := a.Preferences.EnsureDefaults(); err != nil {
		conn.Close()
		return nil, err
	}

	a.Directory = service.NewDirectory(
		repository.NewUserRepository(conn, driver),
		a.Identity,
		service.NewHasher(opts.BcryptCost),
		rec,
		log,
		a.History, a.Preferences,
	)
	a.Catalog = service.NewCatalog(repository.NewCatalogRepository(conn, driver), a.Directory, a.History, rec, log)

	if err := a.Directory.Restore(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if err := a.repairOnStartup(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

// repairOnStartup runs the orphan repair pass for the restored user, if any.
func (a *App) repairOnStartup(ctx context.Context) error {
	moved, err := a.Catalog.RepairOrphanCategories(ctx)
	if errors.Is(err, models.ErrNotAuthenticated) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("repair categories: %w", err)
	}
	if moved > 0 {
		a.Log.Info("reassigned orphaned games on startup", zap.Int64("moved", moved))
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.DB.Close()
}
