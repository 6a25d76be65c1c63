package forward

import "errors"

var (
	// ErrForwardNotFound is returned when a forward does not exist.
	ErrForwardNotFound = errors.New("forward not found")

	// ErrPortConflict is returned when the requested (agent, port) pair is
	// already bound by a running forward.
	ErrPortConflict = errors.New("agent port already bound by a running forward")

	// ErrEngineConfig marks a malformed or missing engine config fragment.
	// Removal paths treat it as non-fatal and continue best-effort.
	ErrEngineConfig = errors.New("engine config fragment malformed or missing")
)
