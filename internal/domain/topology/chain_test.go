package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "veilink/internal/domain/forward/valueobjects"
)

func twoHopGraph(channel string) Graph {
	return Graph{
		Nodes: []Node{
			{Ref: "a", Kind: NodeAgent, AgentID: 1},
			{Ref: "b", Kind: NodeAgent, AgentID: 2},
			{Ref: "t", Kind: NodeExternal, Host: "203.0.113.10", Port: 3306},
		},
		Edges: []Edge{
			{SourceRef: "a", TargetRef: "b", Method: vo.MethodGost, Channel: channel, AgentPort: 10443},
			{SourceRef: "b", TargetRef: "t", Method: vo.MethodGost},
		},
	}
}

func TestParseChain_TwoHops(t *testing.T) {
	chain, err := ParseChain(twoHopGraph("wss"))
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())

	head := chain.Hop(chain.Head())
	tail := chain.Hop(chain.Tail())

	assert.Equal(t, uint(1), head.SourceAgentID)
	assert.Equal(t, vo.TargetAgent, head.TargetType)
	assert.Equal(t, uint(2), head.TargetAgentID)
	assert.Equal(t, uint16(10443), head.AgentPort)

	assert.Equal(t, uint(2), tail.SourceAgentID)
	assert.Equal(t, vo.TargetExternal, tail.TargetType)
	assert.Equal(t, "203.0.113.10", tail.Target)
	assert.Equal(t, uint16(3306), tail.TargetPort)

	assert.Equal(t, chain.Tail(), chain.Next(chain.Head()))
	assert.Equal(t, chain.Head(), chain.Prev(chain.Tail()))
	assert.Equal(t, []uint{1, 2}, chain.AgentIDs())
}

func TestParseChain_ProtocolNegotiation(t *testing.T) {
	chain, err := ParseChain(twoHopGraph("wss"))
	require.NoError(t, err)

	head := chain.Hop(chain.Head())
	tail := chain.Hop(chain.Tail())

	// A hop relaying onward over a channel forwards relay+channel; its
	// successor must listen on the same.
	assert.Equal(t, "tcp", head.Listen)
	assert.Equal(t, "relay+wss", head.Forward)
	assert.Equal(t, "relay+wss", tail.Listen)
	assert.Equal(t, "tcp", tail.Forward)
}

func TestParseChain_NoChannelMeansPlainTCP(t *testing.T) {
	chain, err := ParseChain(twoHopGraph(""))
	require.NoError(t, err)

	for i := chain.Head(); i != -1; i = chain.Next(i) {
		assert.Equal(t, "tcp", chain.Hop(i).Listen)
		assert.Equal(t, "tcp", chain.Hop(i).Forward)
	}
}

func TestParseChain_Errors(t *testing.T) {
	tests := []struct {
		name  string
		graph Graph
	}{
		{"no edges", Graph{Nodes: []Node{{Ref: "a", Kind: NodeAgent, AgentID: 1}}}},
		{"missing node ref", Graph{
			Nodes: []Node{{Ref: "a", Kind: NodeAgent, AgentID: 1}},
			Edges: []Edge{{SourceRef: "a", TargetRef: "ghost", Method: vo.MethodGost}},
		}},
		{"edge from external node", Graph{
			Nodes: []Node{
				{Ref: "x", Kind: NodeExternal, Host: "198.51.100.1", Port: 80},
				{Ref: "a", Kind: NodeAgent, AgentID: 1},
			},
			Edges: []Edge{{SourceRef: "x", TargetRef: "a", Method: vo.MethodGost}},
		}},
		{"invalid method", Graph{
			Nodes: []Node{
				{Ref: "a", Kind: NodeAgent, AgentID: 1},
				{Ref: "t", Kind: NodeExternal, Host: "198.51.100.1", Port: 80},
			},
			Edges: []Edge{{SourceRef: "a", TargetRef: "t", Method: "teleport"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChain(tt.graph)
			assert.ErrorIs(t, err, ErrInvalidTopology)
		})
	}
}

func TestChainValidate(t *testing.T) {
	chain, err := ParseChain(twoHopGraph("tls"))
	require.NoError(t, err)
	assert.NoError(t, chain.Validate())

	// Chain ending at an agent node is rejected.
	g := Graph{
		Nodes: []Node{
			{Ref: "a", Kind: NodeAgent, AgentID: 1},
			{Ref: "b", Kind: NodeAgent, AgentID: 2},
		},
		Edges: []Edge{{SourceRef: "a", TargetRef: "b", Method: vo.MethodGost}},
	}
	chain, err = ParseChain(g)
	require.NoError(t, err)
	assert.ErrorIs(t, chain.Validate(), ErrInvalidTopology)
}

func TestChainValidate_HopMismatch(t *testing.T) {
	g := twoHopGraph("tls")
	// Second hop departs from agent 3 while the first targets agent 2.
	g.Nodes[1].AgentID = 3
	g.Edges[0].TargetRef = "c"
	g.Nodes = append(g.Nodes, Node{Ref: "c", Kind: NodeAgent, AgentID: 2})

	chain, err := ParseChain(g)
	require.NoError(t, err)
	assert.ErrorIs(t, chain.Validate(), ErrInvalidTopology)
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		port    uint16
		wantErr bool
	}{
		{"ipv4", "192.0.2.1", 443, false},
		{"ipv6", "2001:db8::1", 443, false},
		{"bracketed ipv6", "[2001:db8::1]", 443, false},
		{"domain", "db.internal.example.com", 5432, false},
		{"empty host", "", 443, true},
		{"zero port", "192.0.2.1", 0, true},
		{"garbage", "not a host", 443, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.host, tt.port)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTarget)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
