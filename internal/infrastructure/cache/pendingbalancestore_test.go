package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/domain/billing"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

func setupStores(t *testing.T) (pubsub.Bus, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return pubsub.NewRedisBus(client, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))), mr
}

func TestPendingBalanceStoreRoundtrip(t *testing.T) {
	bus, _ := setupStores(t)
	store := NewPendingBalanceStore(bus, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler)))
	ctx := context.Background()

	_, ok, err := store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := billing.NewPendingWindow(start, start.Add(time.Minute), 600)
	require.NoError(t, store.Put(ctx, 10, window))

	got, ok, err := store.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(600), got.Traffic)
	assert.True(t, got.StartTime.Equal(window.StartTime))
	assert.True(t, got.EndTime.Equal(window.EndTime))

	require.NoError(t, store.Delete(ctx, 10))
	_, ok, err = store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingBalanceStoreDropsCorruptEntry(t *testing.T) {
	bus, mr := setupStores(t)
	store := NewPendingBalanceStore(bus, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler)))

	mr.HSet(pubsub.PendingBalanceHash, "10", "{not json")

	_, ok, err := store.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineCycleStoreRoundtrip(t *testing.T) {
	bus, _ := setupStores(t)
	store := NewEngineCycleStore(bus, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler)))
	ctx := context.Background()

	_, ok, err := store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, 10, CycleSnapshot{Download: 100, Upload: 40}))

	snap, ok, err := store.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(100), snap.Download)
	assert.Equal(t, int64(40), snap.Upload)

	require.NoError(t, store.Delete(ctx, 10))
	_, ok, err = store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}
