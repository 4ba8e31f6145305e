package repository

import "errors"

var (
	// ErrNotFound indicates no record matched the filter. Ownership-scoped
	// lookups return it both for absent records and for records owned by
	// someone else; callers cannot tell the two apart.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict indicates a uniqueness violation, e.g. a duplicate username.
	ErrConflict = errors.New("repository: conflict")

	// ErrInvalidArgument indicates the store rejected a malformed value.
	ErrInvalidArgument = errors.New("repository: invalid argument")
)
