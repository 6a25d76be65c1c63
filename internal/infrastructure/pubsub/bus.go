// Package pubsub provides the agent bus: pub/sub channels for task
// dispatch and results, list queues for usage samples, and a small hash
// store for billing carry-over state.
package pubsub

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	taskChannelPrefix       = "agent_task_"
	taskResultChannelPrefix = "agent_task_result_"

	// TaskResultPattern matches every agent's result channel.
	TaskResultPattern = taskResultChannelPrefix + "*"

	// Usage-sample queues, consumed by the periodic drain jobs.
	statusQueuePrefix  = "agent_status:"
	logQueuePrefix     = "agent_log:"
	trafficQueuePrefix = "agent_traffic:"

	// PendingBalanceHash holds unresolved billing windows keyed by
	// forward id.
	PendingBalanceHash = "wait_deduct_balance_forward"
)

// TaskChannel is the dispatch channel for one agent.
func TaskChannel(agentID uint) string {
	return taskChannelPrefix + strconv.FormatUint(uint64(agentID), 10)
}

// TaskResultChannel is the result channel for one agent.
func TaskResultChannel(agentID uint) string {
	return taskResultChannelPrefix + strconv.FormatUint(uint64(agentID), 10)
}

// AgentIDFromResultChannel extracts the agent id from a result channel
// name.
func AgentIDFromResultChannel(channel string) (uint, error) {
	raw, ok := strings.CutPrefix(channel, taskResultChannelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a task result channel: %s", channel)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad agent id in channel %s: %w", channel, err)
	}
	return uint(id), nil
}

// StatusQueue is the list key agents push status samples to.
func StatusQueue(agentID uint) string {
	return statusQueuePrefix + strconv.FormatUint(uint64(agentID), 10)
}

// LogQueue is the list key agents push log lines to.
func LogQueue(agentID uint) string {
	return logQueuePrefix + strconv.FormatUint(uint64(agentID), 10)
}

// TrafficQueue is the list key agents push traffic samples to.
func TrafficQueue(agentID uint) string {
	return trafficQueuePrefix + strconv.FormatUint(uint64(agentID), 10)
}

// MessageHandler receives one published message.
type MessageHandler func(channel, payload string)

// Bus is the transport between the control plane and its agents.
// Publish is fire-and-forget; PSubscribe blocks until ctx is done,
// reconnecting on transport errors.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	PSubscribe(ctx context.Context, pattern string, handler MessageHandler) error

	Push(ctx context.Context, key string, values ...string) error
	Pop(ctx context.Context, key string, count int) ([]string, error)
	Len(ctx context.Context, key string) (int64, error)

	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}
