package task

import (
	"encoding/json"
	"fmt"
)

// Forward task actions.
const (
	ForwardActionAdd    = "add"
	ForwardActionDelete = "delete"
)

// ForwardPayload is the payload of a forward task: instruct an agent to
// bind (or release) one relay instance.
type ForwardPayload struct {
	Action     string          `json:"action"`
	ForwardID  uint            `json:"forwardId"`
	Method     string          `json:"method"`
	Options    json.RawMessage `json:"options,omitempty"`
	AgentPort  uint16          `json:"agentPort"`
	TargetPort uint16          `json:"targetPort"`
	Target     string          `json:"target"`
}

// PingPayload is the payload of a liveness check.
type PingPayload struct {
	Nonce string `json:"nonce"`
}

// ConfigChangePayload tells an agent which engine document changed.
type ConfigChangePayload struct {
	EngineKey string `json:"engineKey"`
	Version   uint64 `json:"version"`
}

// ShellPayload carries a one-shot command line.
type ShellPayload struct {
	Command string `json:"command"`
}

// Envelope is the wire shape of a task on the bus.
type Envelope struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ResultEnvelope is the wire shape of a task result on the bus.
type ResultEnvelope struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Extra   string `json:"extra,omitempty"`
}

// DecodePayload decodes the payload into the variant matching the task
// type. The bus carries duck-typed JSON; this is the single place where it
// becomes a typed value.
func DecodePayload(t Type, raw json.RawMessage) (any, error) {
	switch t {
	case TypeForward:
		var p ForwardPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode forward payload: %w", err)
		}
		return &p, nil
	case TypePing:
		var p PingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ping payload: %w", err)
		}
		return &p, nil
	case TypeConfigChange:
		var p ConfigChangePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode config_change payload: %w", err)
		}
		return &p, nil
	case TypeShell:
		var p ShellPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode shell payload: %w", err)
		}
		return &p, nil
	case TypeHello, TypeReportStat, TypeReportTraffic:
		// No structured payload beyond the raw document.
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", t)
	}
}
