package billing

import (
	"context"
	"time"

	"veilink/internal/domain/billing"
	"veilink/internal/domain/forward"
	"veilink/internal/shared/logger"
)

// coalesceGap is the maximum silence between samples merged into one
// ledger row.
const coalesceGap = 2 * time.Minute

// Sample is one time-ordered usage delta reported for a forward.
type Sample struct {
	Time     time.Time
	Download int64
	Upload   int64
}

// Ledger coalesces usage samples into bounded ledger rows and triggers
// billing when traffic moved. Per ingestion it issues at most one row
// update and one batch insert, regardless of sample count.
type Ledger struct {
	traffic forward.TrafficRepository
	biller  *Biller
	logger  logger.Interface
}

// NewLedger creates a new ledger.
func NewLedger(traffic forward.TrafficRepository, biller *Biller, log logger.Interface) *Ledger {
	return &Ledger{traffic: traffic, biller: biller, logger: log}
}

// Ingest coalesces samples for one forward. Samples must be time
// ordered; a sample within coalesceGap of its predecessor merges into
// the predecessor's row, a later one starts a new row.
func (l *Ledger) Ingest(ctx context.Context, f *forward.Forward, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	latest, err := l.traffic.GetLatest(ctx, f.ID())
	if err != nil {
		return err
	}

	var (
		current      *forward.TrafficEntry
		newRows      []*forward.TrafficEntry
		mergedLatest bool
		prevTime     time.Time
	)
	if latest != nil {
		current = latest
		prevTime = latest.Time
	}

	var totalMoved int64
	for i := range samples {
		sample := &samples[i]
		totalMoved += sample.Download + sample.Upload

		if current != nil && sample.Time.Sub(prevTime) <= coalesceGap {
			current.Download += sample.Download
			current.Upload += sample.Upload
			if current == latest {
				mergedLatest = true
			}
		} else {
			entry := &forward.TrafficEntry{
				ForwardID: f.ID(),
				Time:      sample.Time,
				Download:  sample.Download,
				Upload:    sample.Upload,
			}
			newRows = append(newRows, entry)
			current = entry
		}
		prevTime = sample.Time
	}

	if mergedLatest {
		if err := l.traffic.Update(ctx, latest); err != nil {
			return err
		}
	}
	if err := l.traffic.BatchCreate(ctx, newRows); err != nil {
		return err
	}

	if totalMoved == 0 {
		return nil
	}

	window := billing.NewPendingWindow(samples[0].Time, samples[len(samples)-1].Time, totalMoved)
	return l.biller.Bill(ctx, f, window)
}
