package models

import "errors"

var (
	// ErrConflict is returned when a uniqueness or ownership constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a lookup matched nothing for the current user.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated is returned by user-scoped operations when nobody is logged in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrDefaultCategory is returned when deleting the reserved default category.
	ErrDefaultCategory = errors.New("default category cannot be deleted")
	// ErrInvalidTheme is returned for theme names other than light and dark.
	ErrInvalidTheme = errors.New("invalid theme")
)
