package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/models"
)

// SettingsFile holds the flat preference document.
const SettingsFile = "settings.json"

// Preferences is a durable key/value document. Values written here are strings;
// values of other JSON types written by other tools are kept untouched. Writes
// are whole-document read-modify-write; the last writer wins.
type Preferences struct {
	root   string
	scope  Scope
	log    *zap.Logger
	mu     sync.Mutex
	active *int64
}

// NewPreferences returns a store rooted at the data directory. In ScopeUser the
// document follows the active user and falls back to the global one when nobody is logged in.
func NewPreferences(root string, scope Scope, log *zap.Logger) *Preferences {
	return &Preferences{root: root, scope: scope, log: log}
}

func (p *Preferences) path() string {
	if p.scope == ScopeUser && p.active != nil {
		return filepath.Join(UserDir(p.root, *p.active), SettingsFile)
	}
	return filepath.Join(p.root, SettingsFile)
}

// load returns the current document, or an empty one if it is missing or malformed.
func (p *Preferences) load() map[string]any {
	var settings map[string]any
	path := p.path()
	if _, err := readJSON(path, &settings); err != nil {
		p.log.Warn("ignoring unreadable settings", zap.String("path", path), zap.Error(err))
		return map[string]any{}
	}
	if settings == nil {
		return map[string]any{}
	}
	return settings
}

// Get returns the string stored under key, or def when it is absent or not a string.
func (p *Preferences) Get(key, def string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.load()[key].(string); ok {
		return v
	}
	return def
}

// Set stores value under key.
func (p *Preferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	settings := p.load()
	settings[key] = value
	if err := writeJSON(p.path(), settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Theme returns the stored theme, or dark when it is unset or unknown.
func (p *Preferences) Theme() string {
	theme := p.Get(models.SettingTheme, models.ThemeDark)
	if !models.ValidTheme(theme) {
		return models.ThemeDark
	}
	return theme
}

// SetTheme stores a light or dark theme.
func (p *Preferences) SetTheme(theme string) error {
	if !models.ValidTheme(theme) {
		return fmt.Errorf("%q: %w", theme, models.ErrInvalidTheme)
	}
	return p.Set(models.SettingTheme, theme)
}

// EnsureDefaults writes the default document if none exists yet.
func (p *Preferences) EnsureDefaults() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureDefaults()
}

func (p *Preferences) ensureDefaults() error {
	path := p.path()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := writeJSON(path, map[string]string{models.SettingTheme: models.ThemeDark}); err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

// SetActiveUser re-scopes a per-user store. Global stores ignore it.
func (p *Preferences) SetActiveUser(userID *int64) error {
	if p.scope != ScopeUser {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = copyID(userID)
	return p.ensureDefaults()
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
