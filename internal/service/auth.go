// Package service provides the launcher's account and catalog logic,
// delegating persistence to repository and document store interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/metrics"
	"github.com/atinyakov/GameLauncher/internal/models"
)

// UserRepository defines the persistence operations
// required by the user directory.
type UserRepository interface {
	// UserExists returns true if a user with the given login exists.
	UserExists(ctx context.Context, login string) (bool, error)
	// CreateUser inserts the user and its default category atomically.
	// A taken login yields models.ErrConflict.
	CreateUser(ctx context.Context, login, passwordHash string) (models.User, error)
	// FindByLogin returns the user or models.ErrNotFound.
	FindByLogin(ctx context.Context, login string) (models.User, error)
	// UpdatePasswordHash replaces the stored hash.
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}

// SessionStore persists the logged-in user between runs.
type SessionStore interface {
	Save(userID int64, login string) error
	Load() (models.Session, bool)
	Clear() error
}

// ScopeListener is notified whenever the active user changes. A nil id means
// nobody is logged in.
type ScopeListener interface {
	SetActiveUser(userID *int64) error
}

type cacheState int

const (
	cacheUnloaded cacheState = iota
	cacheLoaded
)

// sessionCache is the in-memory copy of the session record. While unloaded
// every read goes back to the SessionStore.
type sessionCache struct {
	state   cacheState
	session models.Session
}

// Directory implements registration, authentication and the current-user
// accessors on top of a UserRepository and a SessionStore.
type Directory struct {
	repo      UserRepository
	sessions  SessionStore
	hasher    Hasher
	listeners []ScopeListener
	metrics   metrics.Recorder
	log       *zap.Logger

	mu    sync.Mutex
	cache sessionCache
}

// NewDirectory constructs a Directory. listeners are re-scoped on every
// login, logout and Restore.
func NewDirectory(repo UserRepository, sessions SessionStore, hasher Hasher, rec metrics.Recorder, log *zap.Logger, listeners ...ScopeListener) *Directory {
	return &Directory{
		repo:      repo,
		sessions:  sessions,
		hasher:    hasher,
		listeners: listeners,
		metrics:   rec,
		log:       log,
	}
}

// Exists reports whether login is registered.
func (d *Directory) Exists(ctx context.Context, login string) (bool, error) {
	return d.repo.UserExists(ctx, login)
}

// Register creates an account with its default category. It returns false
// when the login is already taken, including by a concurrent registration.
func (d *Directory) Register(ctx context.Context, login, password string) (bool, error) {
	exists, err := d.repo.UserExists(ctx, login)
	if err != nil {
		d.metrics.RecordRegistration(metrics.ResultError)
		return false, fmt.Errorf("check login: %w", err)
	}
	if exists {
		d.metrics.RecordRegistration(metrics.ResultFailure)
		return false, nil
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		d.metrics.RecordRegistration(metrics.ResultError)
		return false, err
	}

	user, err := d.repo.CreateUser(ctx, login, hash)
	if errors.Is(err, models.ErrConflict) {
		d.metrics.RecordRegistration(metrics.ResultFailure)
		return false, nil
	}
	if err != nil {
		d.metrics.RecordRegistration(metrics.ResultError)
		return false, fmt.Errorf("create user: %w", err)
	}

	d.metrics.RecordRegistration(metrics.ResultSuccess)
	d.log.Info("registered user", zap.String("login", login), zap.Int64("user_id", user.ID))
	return true, nil
}

// Authenticate checks the credentials and, on success, persists the session
// and re-scopes the listeners. Unknown logins and wrong passwords both return false.
func (d *Directory) Authenticate(ctx context.Context, login, password string) (bool, error) {
	user, err := d.repo.FindByLogin(ctx, login)
	if errors.Is(err, models.ErrNotFound) {
		d.metrics.RecordLogin(metrics.ResultFailure)
		d.log.Info("login rejected", zap.String("login", login))
		return false, nil
	}
	if err != nil {
		d.metrics.RecordLogin(metrics.ResultError)
		return false, fmt.Errorf("find user: %w", err)
	}

	ok, upgrade, err := d.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		d.metrics.RecordLogin(metrics.ResultError)
		return false, err
	}
	if !ok {
		d.metrics.RecordLogin(metrics.ResultFailure)
		d.log.Info("login rejected", zap.String("login", login))
		return false, nil
	}

	if upgrade {
		d.upgradeHash(ctx, user, password)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.sessions.Save(user.ID, user.Login); err != nil {
		d.metrics.RecordLogin(metrics.ResultError)
		return false, err
	}
	d.cache = sessionCache{state: cacheLoaded, session: models.Session{UserID: user.ID, Login: user.Login}}
	if err := d.notify(&user.ID); err != nil {
		d.metrics.RecordLogin(metrics.ResultError)
		return false, err
	}

	d.metrics.RecordLogin(metrics.ResultSuccess)
	d.log.Info("user logged in", zap.String("login", user.Login), zap.Int64("user_id", user.ID))
	return true, nil
}

// upgradeHash replaces a legacy digest with bcrypt. Failure leaves the old
// hash in place and does not block the login.
func (d *Directory) upgradeHash(ctx context.Context, user models.User, password string) {
	hash, err := d.hasher.Hash(password)
	if err == nil {
		err = d.repo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		d.log.Warn("failed to upgrade legacy password hash", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	d.log.Info("upgraded legacy password hash", zap.Int64("user_id", user.ID))
}

// Logout clears the session record and re-scopes the listeners to nobody.
func (d *Directory) Logout() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.sessions.Clear(); err != nil {
		return err
	}
	d.cache = sessionCache{}
	return d.notify(nil)
}

// Restore loads the persisted session at startup. A session whose login no
// longer exists, or now belongs to a different user id, is cleared. Listeners
// are scoped to the resulting user.
func (d *Directory) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = sessionCache{}
	session, ok := d.sessions.Load()
	if !ok {
		return d.notify(nil)
	}

	user, err := d.repo.FindByLogin(ctx, session.Login)
	switch {
	case errors.Is(err, models.ErrNotFound):
		d.log.Warn("dropping session of unknown user", zap.String("login", session.Login))
		return d.dropSession()
	case err != nil:
		return fmt.Errorf("check session user: %w", err)
	case user.ID != session.UserID:
		d.log.Warn("dropping session with stale user id",
			zap.String("login", session.Login),
			zap.Int64("session_user_id", session.UserID),
			zap.Int64("user_id", user.ID),
		)
		return d.dropSession()
	}
	d.cache = sessionCache{state: cacheLoaded, session: session}
	return d.notify(&session.UserID)
}

// dropSession clears the record and scopes the listeners to nobody. Callers hold d.mu.
func (d *Directory) dropSession() error {
	if err := d.sessions.Clear(); err != nil {
		return err
	}
	return d.notify(nil)
}

// CurrentUserID returns the logged-in user's id. The id 0 is valid; ok is false
// when nobody is logged in.
func (d *Directory) CurrentUserID() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.current()
	return s.UserID, ok
}

// CurrentLogin returns the logged-in user's login.
func (d *Directory) CurrentLogin() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.current()
	return s.Login, ok
}

// IsAuthenticated reports whether a user is logged in.
func (d *Directory) IsAuthenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.current()
	return ok
}

// current reads through an unloaded cache. A session picked up from the store,
// for instance one written by another process, re-scopes the listeners.
// Callers hold d.mu.
func (d *Directory) current() (models.Session, bool) {
	if d.cache.state == cacheLoaded {
		return d.cache.session, true
	}
	s, ok := d.sessions.Load()
	if !ok {
		return models.Session{}, false
	}
	d.cache = sessionCache{state: cacheLoaded, session: s}
	if err := d.notify(&s.UserID); err != nil {
		d.log.Warn("failed to scope stores to restored session", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
	return s, true
}

func (d *Directory) notify(userID *int64) error {
	for _, l := range d.listeners {
		if err := l.SetActiveUser(userID); err != nil {
			return fmt.Errorf("switch active user: %w", err)
		}
	}
	return nil
}
