// Package topology resolves a user-drawn graph of relay nodes into an
// ordered chain of point-to-point hops with negotiated sub-protocols.
package topology

import (
	"fmt"

	vo "veilink/internal/domain/forward/valueobjects"
)

// NodeKind discriminates graph nodes.
type NodeKind string

const (
	NodeAgent    NodeKind = "agent"
	NodeExternal NodeKind = "external"
)

// Node is one vertex of the input graph: either a relay agent or the one
// external destination endpoint.
type Node struct {
	Ref     string   `json:"ref"`
	Kind    NodeKind `json:"kind"`
	AgentID uint     `json:"agentId,omitempty"`
	Host    string   `json:"host,omitempty"`
	Port    uint16   `json:"port,omitempty"`
}

// Edge is one directed segment of the input graph, carrying the relay
// metadata the user picked for that segment.
type Edge struct {
	SourceRef string    `json:"sourceRef"`
	TargetRef string    `json:"targetRef"`
	Method    vo.Method `json:"method"`
	Channel   string    `json:"channel,omitempty"`
	// AgentPort is the listen port requested on the source agent;
	// 0 means "any port", resolved at bind time.
	AgentPort uint16 `json:"agentPort,omitempty"`
	// ProxyProtocol enables origin-address framing on pass-through hops.
	ProxyProtocol bool `json:"proxyProtocol,omitempty"`
}

// Graph is the raw user input.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// none marks an absent arena link.
const none = -1

// Hop is one resolved chain segment. Hops live in the chain's arena and
// reference each other by index, head at the origin agent, tail at the
// hop whose target is the external endpoint.
type Hop struct {
	SourceAgentID uint
	Method        vo.Method
	Channel       string
	ProxyProtocol bool
	AgentPort     uint16
	TargetPort    uint16
	Target        string
	TargetType    vo.TargetType
	TargetAgentID uint

	// Listen and Forward are the negotiated sub-protocols; a hop's Listen
	// must equal its predecessor's Forward for the chain to be
	// traversable end-to-end.
	Listen  string
	Forward string

	prev, next int
}

// Chain is the resolved, doubly linked hop list backed by an arena.
type Chain struct {
	hops []Hop
	head int
	tail int
}

// Len returns the number of hops.
func (c *Chain) Len() int { return len(c.hops) }

// Head returns the arena index of the origin hop.
func (c *Chain) Head() int { return c.head }

// Tail returns the arena index of the terminal hop.
func (c *Chain) Tail() int { return c.tail }

// Hop returns a pointer into the arena; the index must come from Head,
// Tail, Next or Prev.
func (c *Chain) Hop(i int) *Hop { return &c.hops[i] }

// Next returns the downstream hop index, or -1 at the tail.
func (c *Chain) Next(i int) int { return c.hops[i].next }

// Prev returns the upstream hop index, or -1 at the head.
func (c *Chain) Prev(i int) int { return c.hops[i].prev }

// AgentIDs returns every agent referenced by the chain, head to tail,
// without duplicates.
func (c *Chain) AgentIDs() []uint {
	seen := make(map[uint]bool, len(c.hops))
	ids := make([]uint, 0, len(c.hops))
	for i := c.head; i != none; i = c.hops[i].next {
		if !seen[c.hops[i].SourceAgentID] {
			seen[c.hops[i].SourceAgentID] = true
			ids = append(ids, c.hops[i].SourceAgentID)
		}
	}
	return ids
}

// ParseChain resolves the graph into a linked hop chain. Edges are walked
// in input order, origin first; linking runs in reverse index order so
// every hop knows its downstream neighbor before protocols are derived.
func ParseChain(g Graph) (*Chain, error) {
	if len(g.Edges) == 0 {
		return nil, fmt.Errorf("%w: graph has no edges", ErrInvalidTopology)
	}

	nodes := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Ref == "" {
			return nil, fmt.Errorf("%w: node without ref", ErrInvalidTopology)
		}
		nodes[n.Ref] = n
	}

	hops := make([]Hop, len(g.Edges))
	for i, e := range g.Edges {
		src, ok := nodes[e.SourceRef]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references missing node %q", ErrInvalidTopology, i, e.SourceRef)
		}
		dst, ok := nodes[e.TargetRef]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references missing node %q", ErrInvalidTopology, i, e.TargetRef)
		}
		if src.Kind != NodeAgent || src.AgentID == 0 {
			return nil, fmt.Errorf("%w: edge %d must originate at an agent node", ErrInvalidTopology, i)
		}
		if !e.Method.IsValid() {
			return nil, fmt.Errorf("%w: edge %d has no relay method", ErrInvalidTopology, i)
		}

		hop := Hop{
			SourceAgentID: src.AgentID,
			Method:        e.Method,
			Channel:       e.Channel,
			ProxyProtocol: e.ProxyProtocol,
			AgentPort:     e.AgentPort,
			prev:          none,
			next:          none,
		}

		switch dst.Kind {
		case NodeExternal:
			hop.TargetType = vo.TargetExternal
			hop.Target = dst.Host
			hop.TargetPort = dst.Port
		case NodeAgent:
			if dst.AgentID == 0 {
				return nil, fmt.Errorf("%w: edge %d targets an agent node without id", ErrInvalidTopology, i)
			}
			hop.TargetType = vo.TargetAgent
			hop.TargetAgentID = dst.AgentID
		default:
			return nil, fmt.Errorf("%w: edge %d targets unknown node kind %q", ErrInvalidTopology, i, dst.Kind)
		}

		hops[i] = hop
	}

	// Link in reverse so next pointers settle from the external endpoint
	// backward; prev follows from next.
	for i := len(hops) - 1; i > 0; i-- {
		hops[i-1].next = i
		hops[i].prev = i - 1
	}

	chain := &Chain{hops: hops, head: 0, tail: len(hops) - 1}
	chain.negotiate()
	return chain, nil
}

// negotiate derives each hop's listen/forward sub-protocols. A hop that
// relays through the chained engine with a channel forwards over
// "relay+<channel>"; its successor must listen on the same. Everything
// else defaults to plain tcp. Protocols are derived, not configured: this
// is what keeps the chain traversable end-to-end.
func (c *Chain) negotiate() {
	for i := c.head; i != none; i = c.hops[i].next {
		hop := &c.hops[i]

		hop.Forward = "tcp"
		if hop.Method.UsesChainedEngine() && hop.Channel != "" {
			hop.Forward = "relay+" + hop.Channel
		}

		hop.Listen = "tcp"
		if hop.prev != none {
			prev := &c.hops[hop.prev]
			if prev.Method.UsesChainedEngine() && prev.Channel != "" {
				hop.Listen = "relay+" + prev.Channel
			}
		}
	}
}
