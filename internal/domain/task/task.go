// Package task provides the domain model for agent tasks: commands
// dispatched to remote agents over the bus and resolved exactly once by
// their published result.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Type discriminates task payloads.
type Type string

const (
	TypeHello         Type = "hello"
	TypeConfigChange  Type = "config_change"
	TypeForward       Type = "forward"
	TypeShell         Type = "shell"
	TypePing          Type = "ping"
	TypeReportStat    Type = "report_stat"
	TypeReportTraffic Type = "report_traffic"
)

// IsValid reports whether the type is a known value.
func (t Type) IsValid() bool {
	switch t {
	case TypeHello, TypeConfigChange, TypeForward, TypeShell, TypePing,
		TypeReportStat, TypeReportTraffic:
		return true
	}
	return false
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusCreated   Status = "created"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is the agent-reported outcome. Extra is opaque: base64-encoded
// JSON for structured payloads, a plain error string on failure.
type Result struct {
	Success bool   `json:"success"`
	Extra   string `json:"extra,omitempty"`
}

// EphemeralIDPrefix marks tasks that live only in process memory.
const EphemeralIDPrefix = "eph_"

// Task is one dispatched command. It is created once, resolved at most
// once, and terminal after that; a duplicate result must not re-mutate it.
// Ephemeral tasks are shared between the dispatching goroutine and the
// result subscriber, so the resolvable state is guarded.
type Task struct {
	id        string
	agentID   uint
	taskType  Type
	payload   json.RawMessage
	createdAt time.Time

	mu        sync.RWMutex
	status    Status
	result    *Result
	updatedAt time.Time
}

// NewTask creates a task in created state. The ID is assigned by the
// channel (store-generated for durable tasks, content-derived for
// ephemeral ones).
func NewTask(id string, agentID uint, taskType Type, payload json.RawMessage) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("task ID is required")
	}
	if agentID == 0 {
		return nil, fmt.Errorf("task agent ID is required")
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("invalid task type: %s", taskType)
	}

	now := time.Now()
	return &Task{
		id:        id,
		agentID:   agentID,
		taskType:  taskType,
		payload:   payload,
		status:    StatusCreated,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructTask rebuilds a task from persistence.
func ReconstructTask(
	id string,
	agentID uint,
	taskType Type,
	payload json.RawMessage,
	status Status,
	result *Result,
	createdAt, updatedAt time.Time,
) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("task ID is required")
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("invalid task type: %s", taskType)
	}

	return &Task{
		id:        id,
		agentID:   agentID,
		taskType:  taskType,
		payload:   payload,
		status:    status,
		result:    result,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (t *Task) ID() string               { return t.id }
func (t *Task) AgentID() uint            { return t.agentID }
func (t *Task) Type() Type               { return t.taskType }
func (t *Task) Payload() json.RawMessage { return t.payload }
func (t *Task) CreatedAt() time.Time     { return t.createdAt }

func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Task) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Result returns the stored result, nil while unresolved. The returned
// value is never mutated after Resolve stores it.
func (t *Task) Result() *Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// IsEphemeralID reports whether a task id denotes an in-memory task.
func IsEphemeralID(id string) bool {
	return strings.HasPrefix(id, EphemeralIDPrefix)
}

// IsEphemeral reports whether the task lives only in process memory.
func (t *Task) IsEphemeral() bool {
	return IsEphemeralID(t.id)
}

// IsResolved reports whether the task reached a terminal state.
func (t *Task) IsResolved() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status != StatusCreated
}

// Resolve applies the agent's result. A task resolves at most once: a
// duplicate result returns ErrAlreadyResolved and leaves the task
// unchanged, which is what makes result ingestion idempotent.
func (t *Task) Resolve(result Result) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusCreated {
		return ErrAlreadyResolved
	}
	if result.Success {
		t.status = StatusSucceeded
	} else {
		t.status = StatusFailed
	}
	r := result
	t.result = &r
	t.updatedAt = time.Now()
	return nil
}
