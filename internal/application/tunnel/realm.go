package tunnel

import (
	"encoding/json"
	"fmt"
	"strconv"

	"veilink/internal/domain/forward"
)

// RealmDocument is a realm config document: process-wide log/dns/network
// settings plus a flat endpoint list. The remark field carries the owning
// forward's name so fragments can be located for removal.
type RealmDocument struct {
	Log       *RealmLog       `json:"log,omitempty"`
	DNS       json.RawMessage `json:"dns,omitempty"`
	Network   *RealmNetwork   `json:"network,omitempty"`
	Endpoints []RealmEndpoint `json:"endpoints"`
}

type RealmLog struct {
	Level  string `json:"level"`
	Output string `json:"output,omitempty"`
}

type RealmEndpoint struct {
	Remark  string        `json:"remark"`
	Listen  string        `json:"listen"`
	Remote  string        `json:"remote"`
	Network *RealmNetwork `json:"network,omitempty"`
}

type RealmNetwork struct {
	UseUDP    bool `json:"use_udp"`
	SendProxy bool `json:"send_proxy,omitempty"`
}

// RealmEngine implements Engine for the pass-through engine.
type RealmEngine struct{}

func NewRealmEngine() *RealmEngine { return &RealmEngine{} }

func (e *RealmEngine) Key() string { return "realm" }

func realmRemark(id uint) string {
	return "forward-" + strconv.FormatUint(uint64(id), 10)
}

func parseRealmDocument(raw json.RawMessage) (*RealmDocument, error) {
	doc := &RealmDocument{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: malformed realm document: %v", forward.ErrEngineConfig, err)
	}
	return doc, nil
}

// Add appends one endpoint for the forward.
func (e *RealmEngine) Add(document json.RawMessage, f *forward.Forward) (json.RawMessage, error) {
	doc, err := parseRealmDocument(document)
	if err != nil {
		return nil, err
	}

	// First fragment on a fresh document seeds the process settings.
	if doc.Log == nil {
		doc.Log = &RealmLog{Level: "warn"}
	}
	if doc.Network == nil {
		doc.Network = &RealmNetwork{UseUDP: true}
	}

	endpoint := RealmEndpoint{
		Remark: realmRemark(f.ID()),
		Listen: "0.0.0.0:" + strconv.FormatUint(uint64(f.AgentPort()), 10),
		Remote: f.Target() + ":" + strconv.FormatUint(uint64(f.TargetPort()), 10),
		Network: &RealmNetwork{
			UseUDP:    true,
			SendProxy: f.Options().ProxyProtocol,
		},
	}

	doc.Endpoints = append(doc.Endpoints, endpoint)
	return json.Marshal(doc)
}

// Remove deletes the forward's endpoint.
func (e *RealmEngine) Remove(document json.RawMessage, forwardID uint) (json.RawMessage, error) {
	doc, err := parseRealmDocument(document)
	if err != nil {
		return nil, err
	}

	remark := realmRemark(forwardID)
	removed := false
	endpoints := doc.Endpoints[:0]
	for _, endpoint := range doc.Endpoints {
		if endpoint.Remark == remark {
			removed = true
			continue
		}
		endpoints = append(endpoints, endpoint)
	}
	doc.Endpoints = endpoints

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if !removed {
		return raw, fmt.Errorf("%w: no realm endpoint for forward %d", forward.ErrEngineConfig, forwardID)
	}
	return raw, nil
}
