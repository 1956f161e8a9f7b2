package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GameLauncher/internal/config"
	"github.com/atinyakov/GameLauncher/internal/models"
)

type launcher struct {
	t   *testing.T
	dir string
}

func newLauncher(t *testing.T) *launcher {
	t.Helper()
	t.Setenv(config.EnvPrefix+"CONFIG", "")
	t.Setenv(config.EnvPrefix+"BCRYPT_COST", "4")
	return &launcher{t: t, dir: filepath.Join(t.TempDir(), "data")}
}

// run executes one launcher invocation, like a separate process would.
func (l *launcher) run(stdin string, args ...string) (string, error) {
	l.t.Helper()
	var out bytes.Buffer
	args = append([]string{"--data-dir", l.dir, "--log-level", "error"}, args...)
	err := Execute(context.Background(), BuildInfo{Version: "v1.2.3", BuildDate: "2026-10-19"}, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func (l *launcher) ok(args ...string) string {
	l.t.Helper()
	out, err := l.run("", args...)
	require.NoError(l.t, err, "launcher %v", args)
	return out
}

func TestCLI_AccountFlow(t *testing.T) {
	l := newLauncher(t)

	assert.Equal(t, "not logged in\n", l.ok("whoami"))

	out, err := l.run("secret\n", "register", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "registered alice")

	_, err = l.run("", "register", "alice", "--password", "other")
	assert.EqualError(t, err, `login "alice" is already taken`)

	_, err = l.run("", "login", "alice", "--password", "wrong")
	assert.EqualError(t, err, "invalid login or password")
	assert.Equal(t, "not logged in\n", l.ok("whoami"))

	assert.Equal(t, "logged in as alice\n", l.ok("login", "alice", "--password", "secret"))
	assert.Regexp(t, `^alice \(id \d+\)\n$`, l.ok("whoami"))

	assert.Equal(t, "logged out\n", l.ok("logout"))
	assert.Equal(t, "not logged in\n", l.ok("whoami"))
}

func TestCLI_PasswordRequired(t *testing.T) {
	l := newLauncher(t)

	_, err := l.run("", "register", "alice")
	assert.Error(t, err)

	_, err = l.run("\n", "register", "alice")
	assert.EqualError(t, err, "password must not be empty")
}

func TestCLI_CatalogRequiresLogin(t *testing.T) {
	l := newLauncher(t)

	_, err := l.run("", "game", "list")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	_, err = l.run("", "category", "add", "RPG")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestCLI_CatalogFlow(t *testing.T) {
	l := newLauncher(t)
	l.ok("register", "alice", "--password", "pw")
	l.ok("login", "alice", "--password", "pw")

	assert.Equal(t, "All\n", l.ok("category", "list"))
	l.ok("category", "add", "Shooters")
	_, err := l.run("", "category", "add", "Shooters")
	assert.EqualError(t, err, `category "Shooters" already exists`)
	assert.Equal(t, "All\nShooters\n", l.ok("category", "list"))

	l.ok("game", "add", "Doom", "/games/doom", "--category", "Shooters")
	l.ok("game", "add", "Chess", "/games/chess")

	_, err = l.run("", "game", "add", "Doom", "/elsewhere")
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = l.run("", "game", "add", "Quake", "/games/quake", "--category", "Missing")
	assert.EqualError(t, err, `no category named "Missing"`)

	list := l.ok("game", "list")
	assert.Contains(t, list, "Doom")
	assert.Contains(t, list, "Chess")

	assert.Less(t, strings.Index(list, "Chess"), strings.Index(list, "Doom"))
	reversed := l.ok("game", "list", "--reverse")
	assert.Less(t, strings.Index(reversed, "Doom"), strings.Index(reversed, "Chess"))

	shooters := l.ok("game", "list", "--category", "Shooters")
	assert.Contains(t, shooters, "Doom")
	assert.NotContains(t, shooters, "Chess")

	l.ok("game", "edit", "Doom", "Doom II")
	show := l.ok("game", "show", "Doom II")
	assert.Contains(t, show, "Shooters")
	assert.Contains(t, show, "/games/doom")

	_, err = l.run("", "category", "delete", "All")
	assert.EqualError(t, err, "the All category cannot be deleted")
	_, err = l.run("", "category", "delete", "Shooters")
	assert.EqualError(t, err, `category "Shooters" still has games; use --reassign`)

	out := l.ok("category", "delete", "Shooters", "--reassign")
	assert.Contains(t, out, "moved 1 games to All")
	assert.Contains(t, l.ok("game", "show", "Doom II"), "All")

	l.ok("game", "delete", "Chess")
	_, err = l.run("", "game", "show", "Chess")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCLI_CategoriesArePerUser(t *testing.T) {
	l := newLauncher(t)
	l.ok("register", "alice", "--password", "pw")
	l.ok("register", "bob", "--password", "pw")

	l.ok("login", "alice", "--password", "pw")
	l.ok("category", "add", "RPG")

	l.ok("login", "bob", "--password", "pw")
	assert.Equal(t, "All\n", l.ok("category", "list"))
	l.ok("category", "add", "RPG")
}

func TestCLI_PlayAndHistory(t *testing.T) {
	l := newLauncher(t)
	l.ok("register", "alice", "--password", "pw")
	l.ok("login", "alice", "--password", "pw")

	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		l.ok("game", "add", name, "/games/"+name)
		assert.Equal(t, "/games/"+name+"\n", l.ok("play", name))
	}
	l.ok("play", "C")

	assert.Equal(t, "1. C\n2. F\n3. E\n4. D\n5. B\n", l.ok("history"))

	_, err := l.run("", "play", "Missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, "history cleared\n", l.ok("history", "--clear"))
	assert.Empty(t, l.ok("history"))

	l.ok("logout")
	assert.Empty(t, l.ok("history"))
}

func TestCLI_Theme(t *testing.T) {
	l := newLauncher(t)

	assert.Equal(t, "dark\n", l.ok("theme"))
	assert.Equal(t, "theme set to light\n", l.ok("theme", "light"))
	assert.Equal(t, "light\n", l.ok("theme"))

	_, err := l.run("", "theme", "neon")
	assert.ErrorIs(t, err, models.ErrInvalidTheme)
}

func TestCLI_RepairAndMigrate(t *testing.T) {
	l := newLauncher(t)

	out := l.ok("migrate")
	assert.Contains(t, out, "schema version")
	assert.Contains(t, out, "dirty false")
	_, err := os.Stat(filepath.Join(l.dir, config.DatabaseFile))
	require.NoError(t, err)

	l.ok("register", "alice", "--password", "pw")
	l.ok("login", "alice", "--password", "pw")
	assert.Equal(t, "repaired 0 games\n", l.ok("repair"))
}

func TestCLI_VersionSkipsDataDir(t *testing.T) {
	l := newLauncher(t)

	out := l.ok("version")
	assert.Contains(t, out, "Build version: v1.2.3")
	assert.Contains(t, out, "Build date: 2026-10-19")

	_, err := os.Stat(l.dir)
	assert.True(t, os.IsNotExist(err), "version must not create the data directory")
}
