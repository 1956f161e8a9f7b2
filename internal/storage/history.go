package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/models"
)

// HistoryFile holds recently played game names, newest first.
const HistoryFile = "last_games.txt"

// History is the bounded, deduplicated recent-games list of the active user.
type History struct {
	root   string
	scope  Scope
	log    *zap.Logger
	mu     sync.Mutex
	active *int64
}

// NewHistory returns a history store rooted at the data directory. It has no
// active user until SetActiveUser is called.
func NewHistory(root string, scope Scope, log *zap.Logger) *History {
	return &History{root: root, scope: scope, log: log}
}

func (h *History) path() (string, bool) {
	if h.active == nil {
		return "", false
	}
	if h.scope == ScopeGlobal {
		return filepath.Join(h.root, HistoryFile), true
	}
	return filepath.Join(UserDir(h.root, *h.active), HistoryFile), true
}

// SetActiveUser switches the history to userID, creating an empty file for a
// user that has none. A nil userID means nobody is logged in.
func (h *History) SetActiveUser(userID *int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.active = copyID(userID)
	path, ok := h.path()
	if !ok {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := writeFileAtomic(path, nil); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	h.log.Debug("created history file", zap.String("path", path))
	return nil
}

// RecordPlay moves name to the front of the history, dropping its older
// occurrence and anything beyond the newest five entries.
func (h *History) RecordPlay(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("game name %q contains a line break", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	path, ok := h.path()
	if !ok {
		return nil
	}
	games := h.readLines(path)
	recent := make([]string, 0, models.MaxRecentGames)
	recent = append(recent, name)
	for _, g := range games {
		if len(recent) == models.MaxRecentGames {
			break
		}
		if g != name {
			recent = append(recent, g)
		}
	}
	return writeLines(path, recent)
}

// Recent returns up to five names, most recent first. It is empty without an active user.
func (h *History) Recent() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	path, ok := h.path()
	if !ok {
		return []string{}, nil
	}
	games := h.readLines(path)
	if len(games) > models.MaxRecentGames {
		games = games[:models.MaxRecentGames]
	}
	return games, nil
}

// Clear empties the active user's history.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	path, ok := h.path()
	if !ok {
		return nil
	}
	return writeLines(path, nil)
}

// readLines returns the non-blank lines of path. A missing or unreadable file
// has none; the failure is logged and the next write replaces the file.
func (h *History) readLines(path string) []string {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}
	}
	if err != nil {
		h.log.Warn("ignoring unreadable history", zap.String("path", path), zap.Error(err))
		return []string{}
	}

	lines := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func writeLines(path string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
