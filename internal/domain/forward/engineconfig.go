package forward

import (
	"context"
	"encoding/json"
)

// ConfigRepository stores one engine config document per (agent, engine)
// pair. Documents are opaque JSON here; the tunnel builders own their
// shape. Mutations are read-modify-write with no version check, so
// callers serialize per agent.
type ConfigRepository interface {
	GetDocument(ctx context.Context, agentID uint, engine string) (json.RawMessage, error)
	SaveDocument(ctx context.Context, agentID uint, engine string, document json.RawMessage) error
}
