// Package cache holds the small bus-backed state stores: billing
// carry-over windows and engine cycle snapshots.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"veilink/internal/domain/billing"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

// PendingBalanceStore implements billing.PendingWindowStore on the bus's
// hash store. Windows survive restarts so a deferred sub-unit charge is
// never lost between billing cycles.
type PendingBalanceStore struct {
	bus    pubsub.Bus
	logger logger.Interface
}

// NewPendingBalanceStore creates a new pending balance store.
func NewPendingBalanceStore(bus pubsub.Bus, log logger.Interface) billing.PendingWindowStore {
	return &PendingBalanceStore{bus: bus, logger: log}
}

func pendingField(forwardID uint) string {
	return strconv.FormatUint(uint64(forwardID), 10)
}

func (s *PendingBalanceStore) Get(ctx context.Context, forwardID uint) (billing.PendingWindow, bool, error) {
	raw, err := s.bus.HGet(ctx, pubsub.PendingBalanceHash, pendingField(forwardID))
	if err != nil {
		return billing.PendingWindow{}, false, fmt.Errorf("failed to read pending window: %w", err)
	}
	if raw == "" {
		return billing.PendingWindow{}, false, nil
	}

	var window billing.PendingWindow
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		s.logger.Errorw("corrupt pending window, dropping", "forward_id", forwardID, "error", err)
		return billing.PendingWindow{}, false, nil
	}
	return window, true, nil
}

func (s *PendingBalanceStore) Put(ctx context.Context, forwardID uint, window billing.PendingWindow) error {
	raw, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("failed to serialize pending window: %w", err)
	}
	if err := s.bus.HSet(ctx, pubsub.PendingBalanceHash, pendingField(forwardID), string(raw)); err != nil {
		return fmt.Errorf("failed to store pending window: %w", err)
	}
	return nil
}

func (s *PendingBalanceStore) Delete(ctx context.Context, forwardID uint) error {
	if err := s.bus.HDel(ctx, pubsub.PendingBalanceHash, pendingField(forwardID)); err != nil {
		return fmt.Errorf("failed to delete pending window: %w", err)
	}
	return nil
}
