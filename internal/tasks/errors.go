package tasks

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an unknown task id.
var ErrNotFound = errors.New("task not found")

// ValidationError reports input rejected before reaching storage or any
// external system.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PreconditionError reports an operation rejected because of the task's
// current state, with no state mutated.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}
