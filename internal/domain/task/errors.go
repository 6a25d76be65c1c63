package task

import "errors"

var (
	// ErrTaskNotFound is returned when no task matches the given ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAlreadyResolved is returned when a result arrives for a task that
	// already reached a terminal state. Callers drop the duplicate.
	ErrAlreadyResolved = errors.New("task already resolved")

	// ErrTimeout is returned when no result arrived within the caller's
	// deadline. Callers must treat this as agent failure.
	ErrTimeout = errors.New("timed out waiting for task result")
)
