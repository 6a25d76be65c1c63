package scheduler

import (
	"context"

	agentservices "veilink/internal/application/agent/services"
	"veilink/internal/application/traffic"
)

// TrafficDrainJob pumps queued usage samples into the ledger.
type TrafficDrainJob struct {
	drainer *traffic.Drainer
}

func NewTrafficDrainJob(drainer *traffic.Drainer) *TrafficDrainJob {
	return &TrafficDrainJob{drainer: drainer}
}

func (j *TrafficDrainJob) Execute(ctx context.Context) error {
	if err := j.drainer.DrainLogs(ctx); err != nil {
		return err
	}
	return j.drainer.Drain(ctx)
}

// StatusDrainJob consumes agent heartbeats.
type StatusDrainJob struct {
	monitor *agentservices.StatusMonitor
}

func NewStatusDrainJob(monitor *agentservices.StatusMonitor) *StatusDrainJob {
	return &StatusDrainJob{monitor: monitor}
}

func (j *StatusDrainJob) Execute(ctx context.Context) error {
	return j.monitor.DrainStatus(ctx)
}

// LivenessJob pings online agents and marks the silent ones offline.
type LivenessJob struct {
	monitor *agentservices.StatusMonitor
}

func NewLivenessJob(monitor *agentservices.StatusMonitor) *LivenessJob {
	return &LivenessJob{monitor: monitor}
}

func (j *LivenessJob) Execute(ctx context.Context) error {
	return j.monitor.ProbeLiveness(ctx)
}
