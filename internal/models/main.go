// Package models defines the core data structures for users, categories, games
// and the local session record.
package models

// DefaultCategoryName is the reserved category every user receives at registration.
const DefaultCategoryName = "All"

// MaxRecentGames bounds the play history.
const MaxRecentGames = 5

// User represents a local launcher account.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `db:"id" json:"id"`
	// Login is the case-sensitive name chosen by the user.
	Login string `db:"login" json:"login"`
	// PasswordHash is the hashed password of the user.
	PasswordHash string `db:"password_hash" json:"-"`
}

// Category groups games for a single user.
type Category struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	UserID int64  `db:"user_id" json:"user_id"`
}

// IsDefault reports whether c is the reserved catch-all category.
func (c Category) IsDefault() bool {
	return c.Name == DefaultCategoryName
}

// Game is a shortcut to an executable owned by one user.
type Game struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Path       string `db:"path" json:"path"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	UserID     int64  `db:"user_id" json:"user_id"`
}

// Session is the durable "current local user" record.
type Session struct {
	UserID int64
	Login  string
}

// Theme names accepted by the preference store.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// SettingTheme is the preference key holding the UI theme.
const SettingTheme = "theme"

// ValidTheme reports whether t is a known theme name.
func ValidTheme(t string) bool {
	return t == ThemeDark || t == ThemeLight
}
