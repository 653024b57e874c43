package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is matched by every InvalidGraphError via errors.Is.
var ErrInvalidGraph = errors.New("invalid graph")

// InvalidGraphError reports a malformed or empty graph. It is not recoverable by retrying.
type InvalidGraphError struct {
	Reason string
}

// NewInvalidGraphError formats a reason into an InvalidGraphError.
func NewInvalidGraphError(format string, args ...interface{}) *InvalidGraphError {
	return &InvalidGraphError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidGraphError) Error() string {
	return "invalid graph: " + e.Reason
}

// Is lets errors.Is(err, ErrInvalidGraph) match.
func (e *InvalidGraphError) Is(target error) bool {
	return target == ErrInvalidGraph
}
