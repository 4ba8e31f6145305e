package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrValidation marks caller mistakes: malformed ids, missing required
// fields, out-of-range paging parameters. Handlers translate anything
// wrapping it into a client error instead of a server error.
var ErrValidation = errors.New("validation failed")

// ErrInvalidID reports an identifier that is not a valid opaque id.
var ErrInvalidID = fmt.Errorf("%w: invalid id", ErrValidation)

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates an identifier supplied by a caller before it reaches the
// store. Returns the canonical form or ErrInvalidID.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}
