package agent

import "errors"

// ErrAgentNotFound is returned when an agent does not exist.
var (
	// ErrAgentNotFound is returned when an agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentOffline is returned when a placement targets an agent with
	// no live connection.
	ErrAgentOffline = errors.New("agent is offline")

	// ErrPermissionDenied is returned when the agent is neither owned by
	// nor shared with the requesting user.
	ErrPermissionDenied = errors.New("agent is not owned by or shared with user")

	// ErrPortOutOfRange is returned when the requested port falls outside
	// the agent's allowed range.
	ErrPortOutOfRange = errors.New("port outside agent's allowed range")
)
