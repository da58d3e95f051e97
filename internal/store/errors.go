package store

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound covers both a genuinely absent task and a task owned by
// a different user. Callers cannot tell the two apart.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError reports rejected input. Message is safe to show to the
// end user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError wraps a failed blob write. The in-memory mutation has
// already been rolled back by the time the caller sees one, so in-memory
// and persisted state never diverge.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
