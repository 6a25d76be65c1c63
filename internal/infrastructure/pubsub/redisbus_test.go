package pubsub

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/shared/logger"
)

func setupBus(t *testing.T) *RedisBus {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisBus(client, logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler)))
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "agent_task_7", TaskChannel(7))
	assert.Equal(t, "agent_task_result_7", TaskResultChannel(7))
	assert.Equal(t, "agent_status:7", StatusQueue(7))
	assert.Equal(t, "agent_traffic:7", TrafficQueue(7))

	id, err := AgentIDFromResultChannel("agent_task_result_42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = AgentIDFromResultChannel("agent_task_42")
	assert.Error(t, err)
	_, err = AgentIDFromResultChannel("agent_task_result_abc")
	assert.Error(t, err)
}

func TestPushPopLen(t *testing.T) {
	bus := setupBus(t)
	ctx := context.Background()

	require.NoError(t, bus.Push(ctx, "q", "a", "b", "c"))

	n, err := bus.Len(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	values, err := bus.Pop(ctx, "q", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)

	values, err = bus.Pop(ctx, "q", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, values)

	// Exhausted queue pops to nil, not an error.
	values, err = bus.Pop(ctx, "q", 10)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestHashOps(t *testing.T) {
	bus := setupBus(t)
	ctx := context.Background()

	require.NoError(t, bus.HSet(ctx, "h", "10", "x"))
	require.NoError(t, bus.HSet(ctx, "h", "11", "y"))

	v, err := bus.HGet(ctx, "h", "10")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	// Absent field reads as empty string, not an error.
	v, err = bus.HGet(ctx, "h", "99")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	all, err := bus.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"10": "x", "11": "y"}, all)

	require.NoError(t, bus.HDel(ctx, "h", "10"))
	v, err = bus.HGet(ctx, "h", "10")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}
