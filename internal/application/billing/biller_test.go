package billing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/domain/agent"
	"veilink/internal/domain/billing"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type fakeWalletRepo struct {
	wallets map[uint]*billing.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uint]*billing.Wallet)}
}

func (r *fakeWalletRepo) Create(ctx context.Context, w *billing.Wallet) error {
	r.wallets[w.UserID()] = w
	return nil
}

func (r *fakeWalletRepo) GetByUserID(ctx context.Context, userID uint) (*billing.Wallet, error) {
	w, ok := r.wallets[userID]
	if !ok {
		return nil, billing.ErrWalletNotFound
	}
	return w, nil
}

func (r *fakeWalletRepo) GetByUserIDForUpdate(ctx context.Context, userID uint) (*billing.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *fakeWalletRepo) Update(ctx context.Context, w *billing.Wallet) error {
	r.wallets[w.UserID()] = w
	return nil
}

type fakeLogRepo struct {
	logs []*billing.BalanceLog
}

func (r *fakeLogRepo) Create(ctx context.Context, l *billing.BalanceLog) error {
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeLogRepo) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*billing.BalanceLog, error) {
	var out []*billing.BalanceLog
	for _, l := range r.logs {
		if l.UserID() == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePendingStore struct {
	windows map[uint]billing.PendingWindow
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{windows: make(map[uint]billing.PendingWindow)}
}

func (s *fakePendingStore) Get(ctx context.Context, forwardID uint) (billing.PendingWindow, bool, error) {
	w, ok := s.windows[forwardID]
	return w, ok, nil
}

func (s *fakePendingStore) Put(ctx context.Context, forwardID uint, w billing.PendingWindow) error {
	s.windows[forwardID] = w
	return nil
}

func (s *fakePendingStore) Delete(ctx context.Context, forwardID uint) error {
	delete(s.windows, forwardID)
	return nil
}

type fakeAgentRepo struct {
	agents map[uint]*agent.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[uint]*agent.Agent)}
}

func (r *fakeAgentRepo) Create(ctx context.Context, a *agent.Agent) error {
	r.agents[a.ID()] = a
	return nil
}

func (r *fakeAgentRepo) GetByID(ctx context.Context, id uint) (*agent.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, agent.ErrAgentNotFound
	}
	return a, nil
}

func (r *fakeAgentRepo) List(ctx context.Context) ([]*agent.Agent, error) {
	out := make([]*agent.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, a *agent.Agent) error {
	r.agents[a.ID()] = a
	return nil
}

func (r *fakeAgentRepo) UpdateStatus(ctx context.Context, id uint, status agent.Status) error {
	return nil
}

type fakeForwardRepo struct {
	forwards map[uint]*forward.Forward
}

func newFakeForwardRepo() *fakeForwardRepo {
	return &fakeForwardRepo{forwards: make(map[uint]*forward.Forward)}
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
	r.forwards[f.ID()] = f
	return nil
}

func (r *fakeForwardRepo) FindRunningByAgentPort(ctx context.Context, agentID uint, port uint16) (*forward.Forward, error) {
	return nil, nil
}

func (r *fakeForwardRepo) FindByNextForwardID(ctx context.Context, id uint) (*forward.Forward, error) {
	for _, f := range r.forwards {
		if next := f.NextForwardID(); next != nil && *next == id {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeForwardRepo) ListByAgent(ctx context.Context, agentID uint) ([]*forward.Forward, error) {
	return nil, nil
}

func (r *fakeForwardRepo) ListByUser(ctx context.Context, userID uint) ([]*forward.Forward, error) {
	return nil, nil
}

// passthroughTx runs the function without a database.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCompensator struct {
	forwardCalls []uint
	chainCalls   []uint
}

func (c *fakeCompensator) TeardownForward(ctx context.Context, forwardID uint) error {
	c.forwardCalls = append(c.forwardCalls, forwardID)
	return nil
}

func (c *fakeCompensator) TeardownChain(ctx context.Context, forwardID uint) error {
	c.chainCalls = append(c.chainCalls, forwardID)
	return nil
}

type billerFixture struct {
	biller   *Biller
	wallets  *fakeWalletRepo
	logs     *fakeLogRepo
	pending  *fakePendingStore
	agents   *fakeAgentRepo
	forwards *fakeForwardRepo
	comp     *fakeCompensator
}

func newBillerFixture(t *testing.T, price billing.Price) *billerFixture {
	t.Helper()

	fx := &billerFixture{
		wallets:  newFakeWalletRepo(),
		logs:     &fakeLogRepo{},
		pending:  newFakePendingStore(),
		agents:   newFakeAgentRepo(),
		forwards: newFakeForwardRepo(),
		comp:     &fakeCompensator{},
	}
	fx.biller = NewBiller(
		fx.wallets, fx.logs, fx.pending,
		NewPriceProvider(fx.agents, price, testLogger()),
		fx.agents, fx.forwards, passthroughTx{}, fx.comp, testLogger(),
	)
	return fx
}

func (fx *billerFixture) addAgent(t *testing.T, id, ownerID uint) {
	t.Helper()
	a, err := agent.ReconstructAgent(id, "relay", "198.51.100.7:8080", agent.StatusOnline, ownerID, 0, 0, 0, "", time.Now(), time.Now(), time.Now())
	require.NoError(t, err)
	require.NoError(t, fx.agents.Create(context.Background(), a))
}

func (fx *billerFixture) addWallet(t *testing.T, userID uint, balance float64) *billing.Wallet {
	t.Helper()
	w := billing.NewWallet(userID)
	require.NoError(t, w.Credit(balance))
	require.NoError(t, fx.wallets.Create(context.Background(), w))
	return w
}

func (fx *billerFixture) addForward(t *testing.T, id, userID, agentID uint) *forward.Forward {
	t.Helper()
	f, err := forward.NewForward(userID, agentID, vo.MethodGost, forward.Options{}, 15000, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	require.NoError(t, f.SetID(id))
	require.NoError(t, fx.forwards.Create(context.Background(), f))
	return f
}

func window(traffic int64, span time.Duration) billing.PendingWindow {
	start := time.Now().Add(-span)
	return billing.NewPendingWindow(start, start.Add(span), traffic)
}

func TestBillDefersSubUnitWindow(t *testing.T) {
	fx := newBillerFixture(t, billing.Price{Amount: 0.01, Unit: billing.UnitKB})
	fx.addAgent(t, 2, 9)
	fx.addWallet(t, 1, 10)
	f := fx.addForward(t, 10, 1, 2)

	// 600 bytes over 30s: under one KB and under the defer span.
	require.NoError(t, fx.biller.Bill(context.Background(), f, window(600, 30*time.Second)))

	assert.Empty(t, fx.logs.logs)
	stored, ok, _ := fx.pending.Get(context.Background(), 10)
	require.True(t, ok)
	assert.Equal(t, int64(600), stored.Traffic)
}

func TestBillFlushesAfterCarryOver(t *testing.T) {
	fx := newBillerFixture(t, billing.Price{Amount: 0.01, Unit: billing.UnitKB})
	fx.addAgent(t, 2, 9)
	owner := fx.addWallet(t, 1, 10)
	agentOwner := fx.addWallet(t, 9, 0)
	f := fx.addForward(t, 10, 1, 2)

	require.NoError(t, fx.biller.Bill(context.Background(), f, window(600, 30*time.Second)))
	require.NoError(t, fx.biller.Bill(context.Background(), f, window(600, 30*time.Second)))

	// 1200 bytes total crossed one KB: one debit, one credit, same amount.
	require.Len(t, fx.logs.logs, 2)
	debit, credit := fx.logs.logs[0], fx.logs.logs[1]
	assert.Equal(t, billing.LogDebit, debit.Type())
	assert.Equal(t, uint(1), debit.UserID())
	assert.Equal(t, billing.LogCredit, credit.Type())
	assert.Equal(t, uint(9), credit.UserID())
	assert.InDelta(t, debit.Amount(), credit.Amount(), 1e-9)
	assert.InDelta(t, (1200.0/1024.0)*0.01, debit.Amount(), 1e-9)

	// Conservation: what left the owner arrived at the agent owner.
	assert.InDelta(t, 10-debit.Amount(), owner.Balance(), 1e-9)
	assert.InDelta(t, debit.Amount(), agentOwner.Balance(), 1e-9)

	// The carried window is consumed.
	_, ok, _ := fx.pending.Get(context.Background(), 10)
	assert.False(t, ok)
}

func TestBillStaleSubUnitWindowFlushes(t *testing.T) {
	fx := newBillerFixture(t, billing.Price{Amount: 0.01, Unit: billing.UnitKB})
	fx.addAgent(t, 2, 9)
	fx.addWallet(t, 1, 10)
	fx.addWallet(t, 9, 0)
	f := fx.addForward(t, 10, 1, 2)

	// Sub-unit but older than the defer span.
	require.NoError(t, fx.biller.Bill(context.Background(), f, window(600, billing.DeferSpan)))
	assert.Len(t, fx.logs.logs, 2)
}

func TestBillInsufficientBalanceCutsService(t *testing.T) {
	fx := newBillerFixture(t, billing.Price{Amount: 5, Unit: billing.UnitKB})
	fx.addAgent(t, 2, 9)
	owner := fx.addWallet(t, 1, 0.01)
	f := fx.addForward(t, 10, 1, 2)

	err := fx.biller.Bill(context.Background(), f, window(4096, 5*time.Minute))
	assert.ErrorIs(t, err, billing.ErrInsufficientBalance)

	// Balance floor holds, no postings, single forward torn down.
	assert.InDelta(t, 0.01, owner.Balance(), 1e-9)
	assert.Empty(t, fx.logs.logs)
	assert.Equal(t, []uint{10}, fx.comp.forwardCalls)
	assert.Empty(t, fx.comp.chainCalls)

	// The unbilled window survives for a later retry cycle.
	_, ok, _ := fx.pending.Get(context.Background(), 10)
	assert.True(t, ok)
}

func TestBillInsufficientBalanceCutsWholeChain(t *testing.T) {
	fx := newBillerFixture(t, billing.Price{Amount: 5, Unit: billing.UnitKB})
	fx.addAgent(t, 2, 9)
	fx.addWallet(t, 1, 0)
	entry := fx.addForward(t, 10, 1, 2)
	exit := fx.addForward(t, 11, 1, 2)
	entry.LinkNext(exit.ID())

	// Billing failed on the exit hop; its upstream link marks it as part
	// of a chain.
	err := fx.biller.Bill(context.Background(), exit, window(4096, 5*time.Minute))
	assert.Error(t, err)
	assert.Equal(t, []uint{11}, fx.comp.chainCalls)
	assert.Empty(t, fx.comp.forwardCalls)
}

func TestEffectivePriceOverride(t *testing.T) {
	agents := newFakeAgentRepo()
	provider := NewPriceProvider(agents, billing.Price{Amount: 0.01, Unit: billing.UnitGB}, testLogger())
	ctx := context.Background()

	// Unknown agent: default.
	price := provider.EffectivePrice(ctx, 99)
	assert.Equal(t, billing.UnitGB, price.Unit)

	// Agent with an override.
	a, err := agent.ReconstructAgent(2, "relay", "198.51.100.7:8080", agent.StatusOnline, 9, 0, 0, 0.05, "MB", time.Now(), time.Now(), time.Now())
	require.NoError(t, err)
	require.NoError(t, agents.Create(ctx, a))
	price = provider.EffectivePrice(ctx, 2)
	assert.InDelta(t, 0.05, price.Amount, 1e-9)
	assert.Equal(t, billing.UnitMB, price.Unit)

	// Invalid unit falls back to the default.
	a, err = agent.ReconstructAgent(3, "relay", "198.51.100.8:8080", agent.StatusOnline, 9, 0, 0, 0.05, "TB", time.Now(), time.Now(), time.Now())
	require.NoError(t, err)
	require.NoError(t, agents.Create(ctx, a))
	price = provider.EffectivePrice(ctx, 3)
	assert.Equal(t, billing.UnitGB, price.Unit)
}
