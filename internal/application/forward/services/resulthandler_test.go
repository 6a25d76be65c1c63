package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/application/tunnel"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/domain/task"
	"veilink/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type fakeForwardRepo struct {
	mu       sync.Mutex
	forwards map[uint]*forward.Forward
}

func newFakeForwardRepo() *fakeForwardRepo {
	return &fakeForwardRepo{forwards: make(map[uint]*forward.Forward)}
}

func (r *fakeForwardRepo) Create(ctx context.Context, f *forward.Forward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forwards[f.ID()] = f
	return nil
}

func (r *fakeForwardRepo) GetByID(ctx context.Context, id uint) (*forward.Forward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forwards[id]
	if !ok {
		return nil, forward.ErrForwardNotFound
	}
	return f, nil
}

func (r *fakeForwardRepo) Update(ctx context.Context, f *forward.Forward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type fakeConfigRepo struct {
	mu        sync.Mutex
	documents map[string]json.RawMessage
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{documents: make(map[string]json.RawMessage)}
}

func configKey(agentID uint, engine string) string {
	return fmt.Sprintf("%d/%s", agentID, engine)
}

func (r *fakeConfigRepo) GetDocument(ctx context.Context, agentID uint, engine string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.documents[configKey(agentID, engine)], nil
}

func (r *fakeConfigRepo) SaveDocument(ctx context.Context, agentID uint, engine string, document json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[configKey(agentID, engine)] = document
	return nil
}

func TestDecodeBoundPort(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  uint16
	}{
		{
			name:  "base64 agentPort",
			extra: "eyJhZ2VudFBvcnQiOjM4MjEyfQ==", // {"agentPort":38212}
			want:  38212,
		},
		{
			name:  "base64 legacy port",
			extra: "eyJwb3J0IjoxNTAwMX0=", // {"port":15001}
			want:  15001,
		},
		{
			name:  "plain JSON agentPort",
			extra: `{"agentPort":20000}`,
			want:  20000,
		},
		{
			name:  "agentPort wins over legacy port",
			extra: `{"agentPort":20000,"port":15001}`,
			want:  20000,
		},
		{
			name:  "empty extra keeps requested port",
			extra: "",
			want:  0,
		},
		{
			name:  "plain error string",
			extra: "bind: address already in use",
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeBoundPort(tt.extra))
		})
	}
}

func TestHandleAddBindsReportedPort(t *testing.T) {
	forwards := newFakeForwardRepo()
	configs := newFakeConfigRepo()
	handler := NewResultHandler(forwards, tunnel.NewConfigStore(configs, testLogger()), testLogger())

	// An "any port" forward: the gost service holds the forward-id addr
	// sentinel until the agent reports what it bound.
	f, err := forward.NewForward(1, 2, vo.MethodGost, forward.Options{Listen: "relay+wss"}, 0, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	require.NoError(t, f.SetID(11))
	require.NoError(t, forwards.Create(context.Background(), f))

	engine := tunnel.NewGostEngine()
	seeded, err := engine.Add(nil, f)
	require.NoError(t, err)
	require.NoError(t, configs.SaveDocument(context.Background(), 2, engine.Key(), seeded))

	payload, err := json.Marshal(task.ForwardPayload{Action: task.ForwardActionAdd, ForwardID: 11})
	require.NoError(t, err)
	tk, err := task.NewTask("tk_bind0000001", 2, task.TypeForward, payload)
	require.NoError(t, err)
	require.NoError(t, tk.Resolve(task.Result{Success: true, Extra: "eyJhZ2VudFBvcnQiOjM4MjEyfQ=="}))

	require.NoError(t, handler.Handle(context.Background(), tk))

	stored, err := forwards.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusRunning, stored.Status())
	assert.Equal(t, uint16(38212), stored.AgentPort())

	// The sentinel got rewritten to the bound port.
	document, err := configs.GetDocument(context.Background(), 2, engine.Key())
	require.NoError(t, err)
	var doc tunnel.GostDocument
	require.NoError(t, json.Unmarshal(document, &doc))
	require.Len(t, doc.Services, 1)
	assert.Equal(t, ":38212", doc.Services[0].Addr)
}

func TestHandleAddFailureMarksCreateFailed(t *testing.T) {
	forwards := newFakeForwardRepo()
	configs := newFakeConfigRepo()
	handler := NewResultHandler(forwards, tunnel.NewConfigStore(configs, testLogger()), testLogger())

	f, err := forward.NewForward(1, 2, vo.MethodGost, forward.Options{}, 15000, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	require.NoError(t, f.SetID(12))
	require.NoError(t, forwards.Create(context.Background(), f))

	payload, err := json.Marshal(task.ForwardPayload{Action: task.ForwardActionAdd, ForwardID: 12})
	require.NoError(t, err)
	tk, err := task.NewTask("tk_bind0000002", 2, task.TypeForward, payload)
	require.NoError(t, err)
	require.NoError(t, tk.Resolve(task.Result{Success: false, Extra: "bind: address already in use"}))

	require.NoError(t, handler.Handle(context.Background(), tk))

	stored, err := forwards.GetByID(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusCreateFailed, stored.Status())
}
