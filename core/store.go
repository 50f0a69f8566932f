package core

import "errors"

// Store is the persistence gateway the access services run against. Every
// backend under stores/ implements all three parts.
type Store interface {
	ListStore
	GrantStore
	TaskStore
}

// Gateway errors. Backends wrap these so callers can tell a lost race from
// an I/O failure.
var (
	// ErrListNotFound is returned when a grant or task is inserted for a list
	// that does not exist (for example because it was deleted concurrently).
	ErrListNotFound = errors.New("list not found")

	// ErrDuplicateGrant is returned when a grant already exists for the pair.
	ErrDuplicateGrant = errors.New("grant already exists")
)
