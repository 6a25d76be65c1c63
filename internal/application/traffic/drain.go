package traffic

import (
	"context"

	"veilink/internal/domain/agent"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

// trafficBatchSize bounds how many queued samples one drain consumes per
// agent.
const trafficBatchSize = 200

// logBatchSize bounds how many queued agent log lines one drain consumes.
const logBatchSize = 500

// Drainer pops traffic queues and feeds the report service.
type Drainer struct {
	agents agent.Repository
	bus    pubsub.Bus
	report *ReportService
	logger logger.Interface
}

// NewDrainer creates a new traffic drainer.
func NewDrainer(agents agent.Repository, bus pubsub.Bus, report *ReportService, log logger.Interface) *Drainer {
	return &Drainer{agents: agents, bus: bus, report: report, logger: log}
}

// Drain consumes queued traffic samples for every agent.
func (d *Drainer) Drain(ctx context.Context) error {
	agents, err := d.agents.List(ctx)
	if err != nil {
		return err
	}

	for _, a := range agents {
		raws, err := d.bus.Pop(ctx, pubsub.TrafficQueue(a.ID()), trafficBatchSize)
		if err != nil {
			d.logger.Errorw("failed to drain traffic queue", "agent_id", a.ID(), "error", err)
			continue
		}
		if len(raws) == 0 {
			continue
		}
		d.report.HandleReports(ctx, a.ID(), raws)
	}
	return nil
}

// DrainLogs consumes queued agent log lines and surfaces them through the
// control plane logger, named per agent.
func (d *Drainer) DrainLogs(ctx context.Context) error {
	agents, err := d.agents.List(ctx)
	if err != nil {
		return err
	}

	for _, a := range agents {
		lines, err := d.bus.Pop(ctx, pubsub.LogQueue(a.ID()), logBatchSize)
		if err != nil {
			d.logger.Errorw("failed to drain log queue", "agent_id", a.ID(), "error", err)
			continue
		}
		agentLog := d.logger.Named("agent").With("agent_id", a.ID(), "agent_name", a.Name())
		for _, line := range lines {
			agentLog.Infow(line)
		}
	}
	return nil
}
