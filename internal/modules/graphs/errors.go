package graphs

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("graph source not found")

// ErrSourceNotAllowed rejects a reference outside what the source may read.
var ErrSourceNotAllowed = errors.New("graph source not allowed")

// NotFoundError reports a graph source that does not exist.
type NotFoundError struct {
	Source string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph source %q not found: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("graph source %q not found", e.Source)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
