package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/models"
)

// SessionFile is the session record inside the data directory.
const SessionFile = "session.json"

type sessionDocument struct {
	UserID *int64  `json:"user_id"`
	Login  *string `json:"login"`
}

// IdentityStore persists the current local user outside the relational store,
// so it can be read before anyone authenticates and survives restarts.
type IdentityStore struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewIdentityStore returns a store backed by <dir>/session.json.
func NewIdentityStore(dir string, log *zap.Logger) *IdentityStore {
	return &IdentityStore{path: filepath.Join(dir, SessionFile), log: log}
}

// Save replaces the session record.
func (s *IdentityStore) Save(userID int64, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := sessionDocument{UserID: &userID, Login: &login}
	if err := writeJSON(s.path, doc); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the stored session. A missing, unreadable or malformed record,
// or one with a null field, reports false.
func (s *IdentityStore) Load() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc sessionDocument
	found, err := readJSON(s.path, &doc)
	if err != nil {
		s.log.Warn("ignoring unreadable session record", zap.String("path", s.path), zap.Error(err))
		return models.Session{}, false
	}
	if !found || doc.UserID == nil || doc.Login == nil {
		return models.Session{}, false
	}
	return models.Session{UserID: *doc.UserID, Login: *doc.Login}, true
}

// Clear removes the session record. Clearing an absent record is not an error.
func (s *IdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
