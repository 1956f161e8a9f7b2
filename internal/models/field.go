package models

import "fmt"

// Field identifies a column that is checked for uniqueness.
// The set is closed; repository code maps each value to a fixed statement.
type Field int

const (
	FieldGameName Field = iota + 1
	FieldGamePath
	FieldCategoryName
)

// String returns the column label used in logs and error messages.
func (f Field) String() string {
	switch f {
	case FieldGameName:
		return "game name"
	case FieldGamePath:
		return "game path"
	case FieldCategoryName:
		return "category name"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ConflictError names the field that caused an ErrConflict.
type ConflictError struct {
	Field Field
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// Unwrap makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
