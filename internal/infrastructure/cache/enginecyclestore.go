package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

const engineCycleHash = "forward_engine_cycle"

// CycleSnapshot is the cumulative traffic total for a forward at the
// moment its engine counters last reset to zero. Subsequent engine
// reports add onto this base to reconstruct true cumulative totals.
type CycleSnapshot struct {
	Download int64 `json:"download"`
	Upload   int64 `json:"upload"`
}

// EngineCycleStore persists cycle snapshots in the bus's hash store.
type EngineCycleStore struct {
	bus    pubsub.Bus
	logger logger.Interface
}

// NewEngineCycleStore creates a new engine cycle store.
func NewEngineCycleStore(bus pubsub.Bus, log logger.Interface) *EngineCycleStore {
	return &EngineCycleStore{bus: bus, logger: log}
}

func cycleField(forwardID uint) string {
	return strconv.FormatUint(uint64(forwardID), 10)
}

func (s *EngineCycleStore) Get(ctx context.Context, forwardID uint) (CycleSnapshot, bool, error) {
	raw, err := s.bus.HGet(ctx, engineCycleHash, cycleField(forwardID))
	if err != nil {
		return CycleSnapshot{}, false, fmt.Errorf("failed to read cycle snapshot: %w", err)
	}
	if raw == "" {
		return CycleSnapshot{}, false, nil
	}

	var snapshot CycleSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.Errorw("corrupt cycle snapshot, dropping", "forward_id", forwardID, "error", err)
		return CycleSnapshot{}, false, nil
	}
	return snapshot, true, nil
}

func (s *EngineCycleStore) Put(ctx context.Context, forwardID uint, snapshot CycleSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle snapshot: %w", err)
	}
	if err := s.bus.HSet(ctx, engineCycleHash, cycleField(forwardID), string(raw)); err != nil {
		return fmt.Errorf("failed to store cycle snapshot: %w", err)
	}
	return nil
}

func (s *EngineCycleStore) Delete(ctx context.Context, forwardID uint) error {
	if err := s.bus.HDel(ctx, engineCycleHash, cycleField(forwardID)); err != nil {
		return fmt.Errorf("failed to delete cycle snapshot: %w", err)
	}
	return nil
}
