package forward

import (
	"context"
	"time"
)

// Repository is the persistence port for forwards.
type Repository interface {
	Create(ctx context.Context, f *Forward) error
	GetByID(ctx context.Context, id uint) (*Forward, error)
	Update(ctx context.Context, f *Forward) error

	// FindRunningByAgentPort returns the running forward bound to the
	// given agent port, or nil.
	FindRunningByAgentPort(ctx context.Context, agentID uint, port uint16) (*Forward, error)

	// FindByNextForwardID returns the forward whose chain link points at
	// id, or nil. Used to walk a chain upstream.
	FindByNextForwardID(ctx context.Context, id uint) (*Forward, error)

	// ListByAgent returns non-deleted forwards on an agent.
	ListByAgent(ctx context.Context, agentID uint) ([]*Forward, error)

	// ListByUser returns non-deleted forwards owned by a user.
	ListByUser(ctx context.Context, userID uint) ([]*Forward, error)
}

// TrafficEntry is one coalesced ledger row of usage deltas.
type TrafficEntry struct {
	ID        uint
	ForwardID uint
	Time      time.Time
	Download  int64
	Upload    int64
}

// TrafficRepository is the persistence port for the usage ledger. The
// coalescer issues at most one update and one batch insert per report.
type TrafficRepository interface {
	GetLatest(ctx context.Context, forwardID uint) (*TrafficEntry, error)
	Update(ctx context.Context, entry *TrafficEntry) error
	BatchCreate(ctx context.Context, entries []*TrafficEntry) error
	ListRange(ctx context.Context, forwardID uint, from, to time.Time) ([]*TrafficEntry, error)
}
