// Package forward provides the domain model for relay instances: one
// provisioned hop bound to a specific agent.
package forward

import (
	"fmt"
	"time"

	vo "veilink/internal/domain/forward/valueobjects"
)

// Options carries engine-specific settings for a forward.
type Options struct {
	// Channel is the relay sub-protocol between chained-engine hops
	// (ws, wss, tls, grpc, ...). Empty for plain tcp relaying.
	Channel string `json:"channel,omitempty"`

	// ProxyProtocol enables proxy-protocol framing on pass-through
	// endpoints so the origin address survives the hop.
	ProxyProtocol bool `json:"proxyProtocol,omitempty"`

	// Listen and Forward are the negotiated sub-protocols for this hop.
	// Derived by the topology resolver, never configured directly.
	Listen  string `json:"listen,omitempty"`
	Forward string `json:"forward,omitempty"`
}

// Forward is the aggregate root for a single relay instance. Its status
// follows the agent's confirmations: created -> running | create_failed,
// running -> stopped.
type Forward struct {
	id            uint
	userID        uint
	agentID       uint
	method        vo.Method
	options       Options
	agentPort     uint16
	targetPort    uint16
	target        string
	targetType    vo.TargetType
	targetAgentID uint  // set when targetType == agent
	nextForwardID *uint // downstream hop in a chain, nil for single hops / terminal
	status        vo.Status
	download      int64
	upload        int64
	deleted       bool
	createdAt     time.Time
	updatedAt     time.Time
}

// NewForward creates a forward in created state.
func NewForward(
	userID, agentID uint,
	method vo.Method,
	options Options,
	agentPort, targetPort uint16,
	target string,
	targetType vo.TargetType,
	targetAgentID uint,
) (*Forward, error) {
	if userID == 0 {
		return nil, fmt.Errorf("forward user is required")
	}
	if agentID == 0 {
		return nil, fmt.Errorf("forward agent is required")
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("invalid method: %s", method)
	}
	if !targetType.IsValid() {
		return nil, fmt.Errorf("invalid target type: %s", targetType)
	}
	if targetType == vo.TargetAgent && targetAgentID == 0 {
		return nil, fmt.Errorf("agent-targeted forward needs a target agent")
	}
	// Agent targets may start empty; provisioning resolves them to the
	// target agent's address.
	if target == "" && targetType != vo.TargetAgent {
		return nil, fmt.Errorf("forward target is required")
	}

	now := time.Now()
	return &Forward{
		userID:        userID,
		agentID:       agentID,
		method:        method,
		options:       options,
		agentPort:     agentPort,
		targetPort:    targetPort,
		target:        target,
		targetType:    targetType,
		targetAgentID: targetAgentID,
		status:        vo.StatusCreated,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructForward rebuilds a forward from persistence.
func ReconstructForward(
	id, userID, agentID uint,
	method vo.Method,
	options Options,
	agentPort, targetPort uint16,
	target string,
	targetType vo.TargetType,
	targetAgentID uint,
	nextForwardID *uint,
	status vo.Status,
	download, upload int64,
	deleted bool,
	createdAt, updatedAt time.Time,
) (*Forward, error) {
	if id == 0 {
		return nil, fmt.Errorf("forward ID cannot be zero")
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("invalid method: %s", method)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	return &Forward{
		id:            id,
		userID:        userID,
		agentID:       agentID,
		method:        method,
		options:       options,
		agentPort:     agentPort,
		targetPort:    targetPort,
		target:        target,
		targetType:    targetType,
		targetAgentID: targetAgentID,
		nextForwardID: nextForwardID,
		status:        status,
		download:      download,
		upload:        upload,
		deleted:       deleted,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (f *Forward) ID() uint                  { return f.id }
func (f *Forward) UserID() uint              { return f.userID }
func (f *Forward) AgentID() uint             { return f.agentID }
func (f *Forward) Method() vo.Method         { return f.method }
func (f *Forward) Options() Options          { return f.options }
func (f *Forward) AgentPort() uint16         { return f.agentPort }
func (f *Forward) TargetPort() uint16        { return f.targetPort }
func (f *Forward) Target() string            { return f.target }
func (f *Forward) TargetType() vo.TargetType { return f.targetType }
func (f *Forward) TargetAgentID() uint       { return f.targetAgentID }
func (f *Forward) NextForwardID() *uint      { return f.nextForwardID }
func (f *Forward) Status() vo.Status         { return f.status }
func (f *Forward) Download() int64           { return f.download }
func (f *Forward) Upload() int64             { return f.upload }
func (f *Forward) IsDeleted() bool           { return f.deleted }
func (f *Forward) CreatedAt() time.Time      { return f.createdAt }
func (f *Forward) UpdatedAt() time.Time      { return f.updatedAt }

// UsedTraffic is the cumulative byte total over both directions.
func (f *Forward) UsedTraffic() int64 {
	return f.download + f.upload
}

// SetID assigns the persistence-generated ID once.
func (f *Forward) SetID(id uint) error {
	if f.id != 0 {
		return fmt.Errorf("forward ID already set")
	}
	if id == 0 {
		return fmt.Errorf("forward ID cannot be zero")
	}
	f.id = id
	return nil
}

// LinkNext points this forward at its downstream chain hop.
func (f *Forward) LinkNext(nextID uint) {
	f.nextForwardID = &nextID
	f.updatedAt = time.Now()
}

// ResolveTarget replaces the logical target with the concrete address
// and port an agent is currently reachable at. Only meaningful before
// dispatch.
func (f *Forward) ResolveTarget(address string, port uint16) {
	f.target = address
	if port != 0 {
		f.targetPort = port
	}
	f.updatedAt = time.Now()
}

// MarkRunning applies a successful bind confirmation. boundPort is the
// port the agent actually bound, which matters when the request asked for
// "any port" (0). Returns false when the forward is not awaiting
// confirmation, which makes duplicate results harmless.
func (f *Forward) MarkRunning(boundPort uint16) bool {
	if f.status != vo.StatusCreated {
		return false
	}
	f.status = vo.StatusRunning
	if boundPort != 0 {
		f.agentPort = boundPort
	}
	f.updatedAt = time.Now()
	return true
}

// MarkCreateFailed applies a failed bind confirmation.
func (f *Forward) MarkCreateFailed() bool {
	if f.status != vo.StatusCreated {
		return false
	}
	f.status = vo.StatusCreateFailed
	f.updatedAt = time.Now()
	return true
}

// MarkStopped applies a successful teardown confirmation.
func (f *Forward) MarkStopped() bool {
	if f.status != vo.StatusRunning {
		return false
	}
	f.status = vo.StatusStopped
	f.updatedAt = time.Now()
	return true
}

// MarkDeleted soft-deletes the forward.
func (f *Forward) MarkDeleted() {
	f.deleted = true
	f.updatedAt = time.Now()
}

// EverBound reports whether the agent ever confirmed a bind. Forwards that
// never bound can be torn down without contacting the agent.
func (f *Forward) EverBound() bool {
	return f.status == vo.StatusRunning || f.status == vo.StatusStopped
}

// AddTraffic accumulates a usage delta onto the cumulative counters.
func (f *Forward) AddTraffic(download, upload int64) {
	f.download += download
	f.upload += upload
	f.updatedAt = time.Now()
}
