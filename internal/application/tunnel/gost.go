package tunnel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"veilink/internal/domain/forward"
)

// Fragment names follow the content-addressed convention forward-{id} /
// forward-tcp-{id} / forward-udp-{id} / chain-{id} so removal can locate
// everything a forward contributed without a side index.
func gostServiceName(id uint) string    { return "forward-" + strconv.FormatUint(uint64(id), 10) }
func gostTCPServiceName(id uint) string { return "forward-tcp-" + strconv.FormatUint(uint64(id), 10) }
func gostUDPServiceName(id uint) string { return "forward-udp-" + strconv.FormatUint(uint64(id), 10) }
func gostChainName(id uint) string      { return "chain-" + strconv.FormatUint(uint64(id), 10) }

// GostDocument is a gost config document: named services plus named
// relay chains.
type GostDocument struct {
	Services []GostService `json:"services"`
	Chains   []GostChain   `json:"chains,omitempty"`
}

type GostService struct {
	Name      string         `json:"name"`
	Addr      string         `json:"addr"`
	Handler   GostHandler    `json:"handler"`
	Listener  GostListener   `json:"listener"`
	Forwarder *GostForwarder `json:"forwarder,omitempty"`
	Metadata  *GostMetadata  `json:"metadata,omitempty"`
	Observer  string         `json:"observer,omitempty"`
}

// GostMetadata carries per-service handler settings. Stats collection
// has to be opted into here or the observer reports nothing.
type GostMetadata struct {
	EnableStats bool `json:"enableStats"`
}

type GostHandler struct {
	Type  string `json:"type"`
	Chain string `json:"chain,omitempty"`
}

type GostListener struct {
	Type string `json:"type"`
}

type GostForwarder struct {
	Nodes []GostNode `json:"nodes"`
}

type GostChain struct {
	Name string    `json:"name"`
	Hops []GostHop `json:"hops"`
}

type GostHop struct {
	Name  string     `json:"name"`
	Nodes []GostNode `json:"nodes"`
}

type GostNode struct {
	Name      string         `json:"name"`
	Addr      string         `json:"addr"`
	Connector *GostConnector `json:"connector,omitempty"`
	Dialer    *GostDialer    `json:"dialer,omitempty"`
}

type GostConnector struct {
	Type string `json:"type"`
}

type GostDialer struct {
	Type string `json:"type"`
}

// GostEngine implements Engine for the chained tunnel engine.
type GostEngine struct{}

func NewGostEngine() *GostEngine { return &GostEngine{} }

func (e *GostEngine) Key() string { return "gost" }

// gostObserver is the well-known observer every generated service reports
// its traffic counters to. Counters restart from zero on every engine
// cycle; the traffic reporter rebases around those resets.
const gostObserver = "observer-0"

func parseGostDocument(raw json.RawMessage) (*GostDocument, error) {
	doc := &GostDocument{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: malformed gost document: %v", forward.ErrEngineConfig, err)
	}
	return doc, nil
}

// serviceAddr returns the listen addr for a forward. A forward whose
// agent port is still 0 gets the forward id as a sentinel string; the
// provisioner rewrites it once the agent reports the bound port.
func serviceAddr(f *forward.Forward) string {
	if f.AgentPort() == 0 {
		return strconv.FormatUint(uint64(f.ID()), 10)
	}
	return ":" + strconv.FormatUint(uint64(f.AgentPort()), 10)
}

// Add appends the forward's services, and its chain when the hop relays
// onward over a channel.
func (e *GostEngine) Add(document json.RawMessage, f *forward.Forward) (json.RawMessage, error) {
	doc, err := parseGostDocument(document)
	if err != nil {
		return nil, err
	}

	opts := f.Options()
	target := f.Target() + ":" + strconv.FormatUint(uint64(f.TargetPort()), 10)
	forwarder := &GostForwarder{
		Nodes: []GostNode{{Name: "target-0", Addr: target}},
	}
	metadata := &GostMetadata{EnableStats: true}

	var chainRef string
	if relayChannel, ok := relayChannelOf(opts.Forward); ok {
		// Next hop is reached over the relay channel: one chain with a
		// single hop node whose dialer speaks the channel.
		chainRef = gostChainName(f.ID())
		doc.Chains = append(doc.Chains, GostChain{
			Name: chainRef,
			Hops: []GostHop{{
				Name: "hop-0",
				Nodes: []GostNode{{
					Name:      "node-0",
					Addr:      target,
					Connector: &GostConnector{Type: "relay"},
					Dialer:    &GostDialer{Type: relayChannel},
				}},
			}},
		})
	}

	if relayChannel, ok := relayChannelOf(opts.Listen); ok {
		// Upstream hop dials us over the relay channel: one service
		// terminating it.
		doc.Services = append(doc.Services, GostService{
			Name:      gostServiceName(f.ID()),
			Addr:      serviceAddr(f),
			Handler:   GostHandler{Type: "relay", Chain: chainRef},
			Listener:  GostListener{Type: relayChannel},
			Forwarder: forwarder,
			Metadata:  metadata,
			Observer:  gostObserver,
		})
	} else {
		// Plain entry hop: tcp and udp listeners side by side.
		doc.Services = append(doc.Services,
			GostService{
				Name:      gostTCPServiceName(f.ID()),
				Addr:      serviceAddr(f),
				Handler:   GostHandler{Type: "tcp", Chain: chainRef},
				Listener:  GostListener{Type: "tcp"},
				Forwarder: forwarder,
				Metadata:  metadata,
				Observer:  gostObserver,
			},
			GostService{
				Name:      gostUDPServiceName(f.ID()),
				Addr:      serviceAddr(f),
				Handler:   GostHandler{Type: "udp", Chain: chainRef},
				Listener:  GostListener{Type: "udp"},
				Forwarder: forwarder,
				Metadata:  metadata,
				Observer:  gostObserver,
			},
		)
	}

	return json.Marshal(doc)
}

// Remove deletes every service and chain carrying the forward's names.
func (e *GostEngine) Remove(document json.RawMessage, forwardID uint) (json.RawMessage, error) {
	doc, err := parseGostDocument(document)
	if err != nil {
		return nil, err
	}

	names := map[string]bool{
		gostServiceName(forwardID):    true,
		gostTCPServiceName(forwardID): true,
		gostUDPServiceName(forwardID): true,
	}
	chainName := gostChainName(forwardID)

	removed := false
	services := doc.Services[:0]
	for _, svc := range doc.Services {
		if names[svc.Name] {
			removed = true
			continue
		}
		services = append(services, svc)
	}
	doc.Services = services

	chains := doc.Chains[:0]
	for _, chain := range doc.Chains {
		if chain.Name == chainName {
			removed = true
			continue
		}
		chains = append(chains, chain)
	}
	doc.Chains = chains

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if !removed {
		return raw, fmt.Errorf("%w: no gost fragment for forward %d", forward.ErrEngineConfig, forwardID)
	}
	return raw, nil
}

// RewritePort replaces the forward-id sentinel addr with the port the
// agent actually bound.
func (e *GostEngine) RewritePort(document json.RawMessage, forwardID uint, port uint16) (json.RawMessage, error) {
	doc, err := parseGostDocument(document)
	if err != nil {
		return nil, err
	}

	sentinel := strconv.FormatUint(uint64(forwardID), 10)
	addr := ":" + strconv.FormatUint(uint64(port), 10)
	names := map[string]bool{
		gostServiceName(forwardID):    true,
		gostTCPServiceName(forwardID): true,
		gostUDPServiceName(forwardID): true,
	}

	for i := range doc.Services {
		if names[doc.Services[i].Name] && doc.Services[i].Addr == sentinel {
			doc.Services[i].Addr = addr
		}
	}

	return json.Marshal(doc)
}

// relayChannelOf extracts the channel from a negotiated "relay+<channel>"
// sub-protocol.
func relayChannelOf(protocol string) (string, bool) {
	channel, ok := strings.CutPrefix(protocol, "relay+")
	if !ok || channel == "" {
		return "", false
	}
	return channel, true
}
