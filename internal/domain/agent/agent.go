// Package agent provides the domain model for remote relay agents.
package agent

import (
	"fmt"
	"time"
)

// Status is the reachability state of an agent.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	return s == StatusOnline || s == StatusOffline
}

// Agent is the aggregate root for a remote relay process. Tasks are
// dispatched to it over the bus and it reports usage samples back.
type Agent struct {
	id            uint
	name          string
	address       string
	status        Status
	ownerID       uint
	portRangeFrom uint16
	portRangeTo   uint16

	// Optional per-agent traffic price override; zero amount means the
	// global default applies.
	priceAmount float64
	priceUnit   string

	lastSeenAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewAgent creates an agent in offline state.
func NewAgent(name, address string, ownerID uint, portFrom, portTo uint16) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if address == "" {
		return nil, fmt.Errorf("agent address is required")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("agent owner is required")
	}
	if portFrom > portTo {
		return nil, fmt.Errorf("invalid port range: %d-%d", portFrom, portTo)
	}

	now := time.Now()
	return &Agent{
		name:          name,
		address:       address,
		status:        StatusOffline,
		ownerID:       ownerID,
		portRangeFrom: portFrom,
		portRangeTo:   portTo,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructAgent rebuilds an agent from persistence.
func ReconstructAgent(
	id uint,
	name, address string,
	status Status,
	ownerID uint,
	portFrom, portTo uint16,
	priceAmount float64,
	priceUnit string,
	lastSeenAt, createdAt, updatedAt time.Time,
) (*Agent, error) {
	if id == 0 {
		return nil, fmt.Errorf("agent ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid agent status: %s", status)
	}

	return &Agent{
		id:            id,
		name:          name,
		address:       address,
		status:        status,
		ownerID:       ownerID,
		portRangeFrom: portFrom,
		portRangeTo:   portTo,
		priceAmount:   priceAmount,
		priceUnit:     priceUnit,
		lastSeenAt:    lastSeenAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (a *Agent) ID() uint              { return a.id }
func (a *Agent) Name() string          { return a.name }
func (a *Agent) Address() string       { return a.address }
func (a *Agent) Status() Status        { return a.status }
func (a *Agent) OwnerID() uint         { return a.ownerID }
func (a *Agent) PortRangeFrom() uint16 { return a.portRangeFrom }
func (a *Agent) PortRangeTo() uint16   { return a.portRangeTo }
func (a *Agent) LastSeenAt() time.Time { return a.lastSeenAt }
func (a *Agent) CreatedAt() time.Time  { return a.createdAt }
func (a *Agent) UpdatedAt() time.Time  { return a.updatedAt }

// SetID assigns the persistence-generated ID once.
func (a *Agent) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("agent ID already set")
	}
	if id == 0 {
		return fmt.Errorf("agent ID cannot be zero")
	}
	a.id = id
	return nil
}

// IsOnline reports whether the agent is currently reachable.
func (a *Agent) IsOnline() bool {
	return a.status == StatusOnline
}

// MarkOnline records a fresh heartbeat.
func (a *Agent) MarkOnline(at time.Time) {
	a.status = StatusOnline
	a.lastSeenAt = at
	a.updatedAt = time.Now()
}

// MarkOffline flips the agent offline.
func (a *Agent) MarkOffline() {
	a.status = StatusOffline
	a.updatedAt = time.Now()
}

// AllowsPort reports whether an explicitly requested port falls inside the
// agent's configured range. Port 0 means "any" and is always allowed; the
// agent picks the concrete port at bind time.
func (a *Agent) AllowsPort(port uint16) bool {
	if port == 0 {
		return true
	}
	if a.portRangeFrom == 0 && a.portRangeTo == 0 {
		return true
	}
	return port >= a.portRangeFrom && port <= a.portRangeTo
}

// PriceOverride returns the per-agent traffic price when configured.
func (a *Agent) PriceOverride() (amount float64, unit string, ok bool) {
	if a.priceAmount <= 0 || a.priceUnit == "" {
		return 0, "", false
	}
	return a.priceAmount, a.priceUnit, true
}
