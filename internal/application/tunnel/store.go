package tunnel

import (
	"context"
	"encoding/json"
	"sync"

	"veilink/internal/domain/forward"
	"veilink/internal/shared/logger"
)

// ConfigStore serializes engine config mutations per agent. Documents
// are read-modify-write with no version check, so the per-agent mutex is
// what keeps concurrent provision and teardown calls from clobbering
// each other's fragments.
type ConfigStore struct {
	repo   forward.ConfigRepository
	logger logger.Interface

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewConfigStore creates a new config store.
func NewConfigStore(repo forward.ConfigRepository, log logger.Interface) *ConfigStore {
	return &ConfigStore{
		repo:   repo,
		logger: log,
		locks:  make(map[uint]*sync.Mutex),
	}
}

func (s *ConfigStore) agentLock(agentID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[agentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[agentID] = lock
	}
	return lock
}

// Mutate loads the agent's document for the engine, applies fn, and
// persists the result, all under the agent's lock.
func (s *ConfigStore) Mutate(ctx context.Context, agentID uint, engine Engine, fn func(document json.RawMessage) (json.RawMessage, error)) error {
	lock := s.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	document, err := s.repo.GetDocument(ctx, agentID, engine.Key())
	if err != nil {
		return err
	}

	updated, err := fn(document)
	if err != nil {
		return err
	}

	return s.repo.SaveDocument(ctx, agentID, engine.Key(), updated)
}

// Get returns the agent's current document for the engine.
func (s *ConfigStore) Get(ctx context.Context, agentID uint, engine Engine) (json.RawMessage, error) {
	return s.repo.GetDocument(ctx, agentID, engine.Key())
}
