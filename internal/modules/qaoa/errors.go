package qaoa

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams is returned for a non-positive depth or iteration budget.
	ErrInvalidParams = errors.New("qaoa: invalid parameters")
	// ErrNumericalInstability marks a transient evaluation failure that may be retried.
	ErrNumericalInstability = errors.New("qaoa: numerical instability")
	// ErrOptimizationFailed is matched by every OptimizationFailedError via errors.Is.
	ErrOptimizationFailed = errors.New("qaoa: optimization failed")
)

// OptimizationFailedError is returned when the parameter search or the final sampling
// pass could not complete after the retry budget was exhausted.
type OptimizationFailedError struct {
	Depth     int
	Iteration int
	Err       error
}

func (e *OptimizationFailedError) Error() string {
	return fmt.Sprintf("optimization failed (depth=%d, evaluation=%d): %v", e.Depth, e.Iteration, e.Err)
}

func (e *OptimizationFailedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrOptimizationFailed) match.
func (e *OptimizationFailedError) Is(target error) bool {
	return target == ErrOptimizationFailed
}
