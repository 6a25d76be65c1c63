package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/domain/billing"
	"veilink/internal/domain/forward"
)

type fakeTrafficRepo struct {
	latest  *forward.TrafficEntry
	updates int
	batches [][]*forward.TrafficEntry
}

func (r *fakeTrafficRepo) GetLatest(ctx context.Context, forwardID uint) (*forward.TrafficEntry, error) {
	return r.latest, nil
}

func (r *fakeTrafficRepo) Update(ctx context.Context, entry *forward.TrafficEntry) error {
	r.updates++
	r.latest = entry
	return nil
}

func (r *fakeTrafficRepo) BatchCreate(ctx context.Context, entries []*forward.TrafficEntry) error {
	r.batches = append(r.batches, entries)
	if len(entries) > 0 {
		r.latest = entries[len(entries)-1]
	}
	return nil
}

func (r *fakeTrafficRepo) ListRange(ctx context.Context, forwardID uint, from, to time.Time) ([]*forward.TrafficEntry, error) {
	return nil, nil
}

func (r *fakeTrafficRepo) inserted() []*forward.TrafficEntry {
	var out []*forward.TrafficEntry
	for _, batch := range r.batches {
		out = append(out, batch...)
	}
	return out
}

func newLedgerFixture(t *testing.T) (*Ledger, *fakeTrafficRepo, *billerFixture) {
	t.Helper()
	fx := newBillerFixture(t, billing.Price{Amount: 0.01, Unit: billing.UnitGB})
	fx.addAgent(t, 2, 9)
	fx.addWallet(t, 1, 100)
	fx.addWallet(t, 9, 0)
	traffic := &fakeTrafficRepo{}
	return NewLedger(traffic, fx.biller, testLogger()), traffic, fx
}

func TestIngestCoalescesIntoLatestRow(t *testing.T) {
	ledger, traffic, fx := newLedgerFixture(t)
	f := fx.addForward(t, 10, 1, 2)
	base := time.Now().Add(-10 * time.Minute)

	traffic.latest = &forward.TrafficEntry{ID: 1, ForwardID: 10, Time: base, Download: 100, Upload: 50}

	// Both samples fall within the gap of the stored row.
	samples := []Sample{
		{Time: base.Add(time.Minute), Download: 20, Upload: 10},
		{Time: base.Add(2 * time.Minute), Download: 5, Upload: 5},
	}
	require.NoError(t, ledger.Ingest(context.Background(), f, samples))

	assert.Equal(t, 1, traffic.updates)
	assert.Empty(t, traffic.inserted())
	assert.Equal(t, int64(125), traffic.latest.Download)
	assert.Equal(t, int64(65), traffic.latest.Upload)
}

func TestIngestStartsNewRowAfterGap(t *testing.T) {
	ledger, traffic, fx := newLedgerFixture(t)
	f := fx.addForward(t, 10, 1, 2)
	base := time.Now().Add(-30 * time.Minute)

	traffic.latest = &forward.TrafficEntry{ID: 1, ForwardID: 10, Time: base, Download: 100, Upload: 0}

	// First sample is past the gap and opens a new row; the second merges
	// into it; the third opens yet another.
	samples := []Sample{
		{Time: base.Add(5 * time.Minute), Download: 10, Upload: 0},
		{Time: base.Add(6 * time.Minute), Download: 10, Upload: 0},
		{Time: base.Add(20 * time.Minute), Download: 30, Upload: 0},
	}
	require.NoError(t, ledger.Ingest(context.Background(), f, samples))

	assert.Equal(t, 0, traffic.updates)
	rows := traffic.inserted()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(20), rows[0].Download)
	assert.Equal(t, int64(30), rows[1].Download)
}

func TestIngestEmptyAndIdleSamples(t *testing.T) {
	ledger, traffic, fx := newLedgerFixture(t)
	f := fx.addForward(t, 10, 1, 2)

	require.NoError(t, ledger.Ingest(context.Background(), f, nil))
	assert.Empty(t, traffic.batches)

	// A zero-delta sample still lands in the ledger but bills nothing.
	samples := []Sample{{Time: time.Now(), Download: 0, Upload: 0}}
	require.NoError(t, ledger.Ingest(context.Background(), f, samples))
	assert.Len(t, traffic.inserted(), 1)
	assert.Empty(t, fx.logs.logs)
	_, pending, _ := fx.pending.Get(context.Background(), 10)
	assert.False(t, pending)
}

func TestIngestTriggersBilling(t *testing.T) {
	ledger, _, fx := newLedgerFixture(t)
	f := fx.addForward(t, 10, 1, 2)
	base := time.Now().Add(-10 * time.Minute)

	// 2 GB over 5 minutes at 0.01/GB.
	gb := int64(1 << 30)
	samples := []Sample{
		{Time: base, Download: gb, Upload: 0},
		{Time: base.Add(5 * time.Minute), Download: 0, Upload: gb},
	}
	require.NoError(t, ledger.Ingest(context.Background(), f, samples))

	require.Len(t, fx.logs.logs, 2)
	assert.InDelta(t, 0.02, fx.logs.logs[0].Amount(), 1e-9)
}
