package valueobjects

// Status is the lifecycle state of a forward.
type Status string

const (
	// StatusCreated: row exists, agent has not confirmed the bind yet.
	StatusCreated Status = "created"

	// StatusCreateFailed: the agent rejected or failed the bind.
	StatusCreateFailed Status = "create_failed"

	// StatusRunning: the agent confirmed the bind and traffic may flow.
	StatusRunning Status = "running"

	// StatusStopped: torn down after having run.
	StatusStopped Status = "stopped"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusCreateFailed, StatusRunning, StatusStopped:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCreateFailed || s == StatusStopped
}
