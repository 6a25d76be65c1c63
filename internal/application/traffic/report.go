// Package traffic turns raw agent usage reports into forward counter
// updates and ledger ingestions, reconstructing cumulative totals across
// engine counter resets.
package traffic

import (
	"context"
	"encoding/json"
	"time"

	appbilling "veilink/internal/application/billing"
	"veilink/internal/domain/forward"
	"veilink/internal/infrastructure/cache"
	"veilink/internal/shared/logger"
)

// AgentSample is one usage report popped from an agent's traffic queue.
// Download and Upload are cumulative since the engine last started; Ready
// marks a fresh engine start, after which counters restart from zero.
type AgentSample struct {
	ForwardID uint  `json:"forwardId"`
	Download  int64 `json:"download"`
	Upload    int64 `json:"upload"`
	Ready     bool  `json:"ready,omitempty"`
	Time      int64 `json:"time"`
}

// ReportService applies agent traffic reports.
type ReportService struct {
	forwards forward.Repository
	cycles   *cache.EngineCycleStore
	ledger   *appbilling.Ledger
	logger   logger.Interface
}

// NewReportService creates a new traffic report service.
func NewReportService(
	forwards forward.Repository,
	cycles *cache.EngineCycleStore,
	ledger *appbilling.Ledger,
	log logger.Interface,
) *ReportService {
	return &ReportService{forwards: forwards, cycles: cycles, ledger: ledger, logger: log}
}

// HandleReports processes a batch of raw samples for one agent. Each
// sample's cumulative counters are rebased onto the forward's cycle
// snapshot, then the positive delta against the Forward row is recorded
// and fed to the ledger. Bad samples are dropped individually.
func (s *ReportService) HandleReports(ctx context.Context, agentID uint, raws []string) {
	for _, raw := range raws {
		var sample AgentSample
		if err := json.Unmarshal([]byte(raw), &sample); err != nil {
			s.logger.Warnw("dropping malformed traffic sample", "agent_id", agentID, "error", err)
			continue
		}
		if err := s.apply(ctx, &sample); err != nil {
			s.logger.Errorw("failed to apply traffic sample",
				"agent_id", agentID, "forward_id", sample.ForwardID, "error", err)
		}
	}
}

func (s *ReportService) apply(ctx context.Context, sample *AgentSample) error {
	f, err := s.forwards.GetByID(ctx, sample.ForwardID)
	if err != nil {
		return err
	}

	if sample.Ready {
		// Engine counters just reset; snapshot the current cumulative
		// totals so the restarted counters can be rebased onto them.
		return s.cycles.Put(ctx, f.ID(), cache.CycleSnapshot{
			Download: f.Download(),
			Upload:   f.Upload(),
		})
	}

	snapshot, _, err := s.cycles.Get(ctx, f.ID())
	if err != nil {
		return err
	}

	trueDownload := snapshot.Download + sample.Download
	trueUpload := snapshot.Upload + sample.Upload

	deltaDownload := trueDownload - f.Download()
	deltaUpload := trueUpload - f.Upload()
	if deltaDownload < 0 {
		deltaDownload = 0
	}
	if deltaUpload < 0 {
		deltaUpload = 0
	}
	if deltaDownload == 0 && deltaUpload == 0 {
		return nil
	}

	f.AddTraffic(deltaDownload, deltaUpload)
	if err := s.forwards.Update(ctx, f); err != nil {
		return err
	}

	sampleTime := time.Unix(sample.Time, 0)
	if sample.Time == 0 {
		sampleTime = time.Now()
	}

	return s.ledger.Ingest(ctx, f, []appbilling.Sample{{
		Time:     sampleTime,
		Download: deltaDownload,
		Upload:   deltaUpload,
	}})
}
