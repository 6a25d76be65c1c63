package traffic

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "veilink/internal/application/billing"
	"veilink/internal/domain/agent"
	"veilink/internal/domain/billing"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/infrastructure/cache"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type fakeForwardRepo struct {
	forwards map[uint]*forward.Forward
	updates  int
}

func (r *fakeForwardRepo) Create(ctx context.Context, f *forward.Forward) error {
	r.forwards[f.ID()] = f
	return nil
}

func (r *fakeForwardRepo) GetByID(ctx context.Context, id uint) (*forward.Forward, error) {
	f, ok := r.forwards[id]
	if !ok {
		return nil, forward.ErrForwardNotFound
	}
	return f, nil
}

func (r *fakeForwardRepo) Update(ctx context.Context, f *forward.Forward) error {
	r.updates++
	r.forwards[f.ID()] = f
	return nil
}

func (r *fakeForwardRepo) FindRunningByAgentPort(ctx context.Context, agentID uint, port uint16) (*forward.Forward, error) {
	return nil, nil
}

func (r *fakeForwardRepo) FindByNextForwardID(ctx context.Context, id uint) (*forward.Forward, error) {
	return nil, nil
}

func (r *fakeForwardRepo) ListByAgent(ctx context.Context, agentID uint) ([]*forward.Forward, error) {
	return nil, nil
}

func (r *fakeForwardRepo) ListByUser(ctx context.Context, userID uint) ([]*forward.Forward, error) {
	return nil, nil
}

type fakeTrafficRepo struct{}

func (fakeTrafficRepo) GetLatest(ctx context.Context, forwardID uint) (*forward.TrafficEntry, error) {
	return nil, nil
}
func (fakeTrafficRepo) Update(ctx context.Context, entry *forward.TrafficEntry) error { return nil }
func (fakeTrafficRepo) BatchCreate(ctx context.Context, entries []*forward.TrafficEntry) error {
	return nil
}
func (fakeTrafficRepo) ListRange(ctx context.Context, forwardID uint, from, to time.Time) ([]*forward.TrafficEntry, error) {
	return nil, nil
}

type fakeWalletRepo struct{}

func (fakeWalletRepo) Create(ctx context.Context, w *billing.Wallet) error { return nil }
func (fakeWalletRepo) GetByUserID(ctx context.Context, userID uint) (*billing.Wallet, error) {
	return billing.NewWallet(userID), nil
}
func (fakeWalletRepo) GetByUserIDForUpdate(ctx context.Context, userID uint) (*billing.Wallet, error) {
	return billing.NewWallet(userID), nil
}
func (fakeWalletRepo) Update(ctx context.Context, w *billing.Wallet) error { return nil }

type fakeLogRepo struct{}

func (fakeLogRepo) Create(ctx context.Context, l *billing.BalanceLog) error { return nil }
func (fakeLogRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*billing.BalanceLog, error) {
	return nil, nil
}

type fakeAgentRepo struct{}

func (fakeAgentRepo) Create(ctx context.Context, a *agent.Agent) error { return nil }
func (fakeAgentRepo) GetByID(ctx context.Context, id uint) (*agent.Agent, error) {
	return nil, agent.ErrAgentNotFound
}
func (fakeAgentRepo) List(ctx context.Context) ([]*agent.Agent, error)                { return nil, nil }
func (fakeAgentRepo) Update(ctx context.Context, a *agent.Agent) error                { return nil }
func (fakeAgentRepo) UpdateStatus(ctx context.Context, id uint, s agent.Status) error { return nil }

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopCompensator struct{}

func (noopCompensator) TeardownForward(ctx context.Context, forwardID uint) error { return nil }
func (noopCompensator) TeardownChain(ctx context.Context, forwardID uint) error   { return nil }

func setupReport(t *testing.T) (*ReportService, *fakeForwardRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := testLogger()
	bus := pubsub.NewRedisBus(client, log)
	cycles := cache.NewEngineCycleStore(bus, log)
	pending := cache.NewPendingBalanceStore(bus, log)

	forwards := &fakeForwardRepo{forwards: make(map[uint]*forward.Forward)}
	price := billing.Price{Amount: 0.01, Unit: billing.UnitGB}
	biller := appbilling.NewBiller(
		fakeWalletRepo{}, fakeLogRepo{}, pending,
		appbilling.NewPriceProvider(fakeAgentRepo{}, price, log),
		fakeAgentRepo{}, forwards, passthroughTx{}, noopCompensator{}, log,
	)
	ledger := appbilling.NewLedger(fakeTrafficRepo{}, biller, log)

	return NewReportService(forwards, cycles, ledger, log), forwards
}

func addForward(t *testing.T, repo *fakeForwardRepo, id uint) *forward.Forward {
	t.Helper()
	f, err := forward.NewForward(1, 2, vo.MethodGost, forward.Options{}, 15000, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	require.NoError(t, f.SetID(id))
	require.NoError(t, repo.Create(context.Background(), f))
	return f
}

func sample(forwardID uint, download, upload int64) string {
	return fmt.Sprintf(`{"forwardId":%d,"download":%d,"upload":%d,"time":1700000000}`, forwardID, download, upload)
}

func TestHandleReportsAccumulatesDeltas(t *testing.T) {
	svc, forwards := setupReport(t)
	f := addForward(t, forwards, 10)
	ctx := context.Background()

	svc.HandleReports(ctx, 2, []string{sample(10, 1000, 500)})
	assert.Equal(t, int64(1000), f.Download())
	assert.Equal(t, int64(500), f.Upload())

	// Counters grew: only the delta lands.
	svc.HandleReports(ctx, 2, []string{sample(10, 1500, 700)})
	assert.Equal(t, int64(1500), f.Download())
	assert.Equal(t, int64(700), f.Upload())
}

func TestHandleReportsRebasesAfterEngineRestart(t *testing.T) {
	svc, forwards := setupReport(t)
	f := addForward(t, forwards, 10)
	ctx := context.Background()

	svc.HandleReports(ctx, 2, []string{sample(10, 1000, 500)})

	// Engine restart: ready snapshot, then counters start over from zero.
	svc.HandleReports(ctx, 2, []string{`{"forwardId":10,"ready":true}`})
	svc.HandleReports(ctx, 2, []string{sample(10, 200, 100)})

	assert.Equal(t, int64(1200), f.Download())
	assert.Equal(t, int64(600), f.Upload())
}

func TestHandleReportsIgnoresStaleCounters(t *testing.T) {
	svc, forwards := setupReport(t)
	f := addForward(t, forwards, 10)
	ctx := context.Background()

	svc.HandleReports(ctx, 2, []string{sample(10, 1000, 500)})
	updatesAfterFirst := forwards.updates

	// A replayed lower counter must not move totals backwards.
	svc.HandleReports(ctx, 2, []string{sample(10, 800, 400)})
	assert.Equal(t, int64(1000), f.Download())
	assert.Equal(t, int64(500), f.Upload())
	assert.Equal(t, updatesAfterFirst, forwards.updates)
}

func TestHandleReportsDropsBadSamples(t *testing.T) {
	svc, forwards := setupReport(t)
	f := addForward(t, forwards, 10)
	ctx := context.Background()

	// Malformed JSON and an unknown forward are skipped; the good sample
	// still applies.
	svc.HandleReports(ctx, 2, []string{
		"{not json",
		sample(99, 100, 100),
		sample(10, 300, 0),
	})
	assert.Equal(t, int64(300), f.Download())
}
