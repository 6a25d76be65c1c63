// Package tunnel builds and edits per-agent tunnel engine config
// documents. Fragments are located by naming convention, never by a side
// index, so add and remove stay symmetric across restarts.
package tunnel

import (
	"encoding/json"

	"veilink/internal/domain/forward"
)

// Engine edits one engine's config document. Implementations are pure
// document transforms; persistence and locking live in the ConfigStore.
type Engine interface {
	// Key identifies the engine in the config store (gost, realm).
	Key() string

	// Add appends the config fragments for a forward and returns the
	// updated document. A nil document means the agent has none yet.
	Add(document json.RawMessage, f *forward.Forward) (json.RawMessage, error)

	// Remove deletes every fragment matching the forward's naming
	// convention. Returns forward.ErrEngineConfig (wrapped) when no
	// fragment was found; callers treat that as non-fatal.
	Remove(document json.RawMessage, forwardID uint) (json.RawMessage, error)
}
