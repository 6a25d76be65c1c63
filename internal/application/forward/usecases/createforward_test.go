package usecases

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilink/internal/domain/agent"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/domain/user"
	apperrors "veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type fakeAgentRepo struct {
	agents map[uint]*agent.Agent
}

func (r *fakeAgentRepo) Create(ctx context.Context, a *agent.Agent) error { return nil }

func (r *fakeAgentRepo) GetByID(ctx context.Context, id uint) (*agent.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, agent.ErrAgentNotFound
	}
	return a, nil
}

func (r *fakeAgentRepo) List(ctx context.Context) ([]*agent.Agent, error)                { return nil, nil }
func (r *fakeAgentRepo) Update(ctx context.Context, a *agent.Agent) error                { return nil }
func (r *fakeAgentRepo) UpdateStatus(ctx context.Context, id uint, s agent.Status) error { return nil }

type fakeShareRepo struct {
	shared map[[2]uint]bool
}

func (r *fakeShareRepo) IsSharedWith(ctx context.Context, agentID, userID uint) (bool, error) {
	return r.shared[[2]uint{agentID, userID}], nil
}

func (r *fakeShareRepo) Share(ctx context.Context, agentID, userID uint) error {
	r.shared[[2]uint{agentID, userID}] = true
	return nil
}

func (r *fakeShareRepo) Unshare(ctx context.Context, agentID, userID uint) error {
	delete(r.shared, [2]uint{agentID, userID})
	return nil
}

type fakeUserRepo struct {
	users map[uint]*user.User
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func testAgent(t *testing.T, id, ownerID uint, status agent.Status, portFrom, portTo uint16) *agent.Agent {
	t.Helper()
	a, err := agent.ReconstructAgent(id, "relay", "198.51.100.7:8080", status, ownerID,
		portFrom, portTo, 0, "", time.Now(), time.Now(), time.Now())
	require.NoError(t, err)
	return a
}

func testUser(t *testing.T, id uint, role user.Role) *user.User {
	t.Helper()
	u := user.ReconstructUser(id, "someone", "someone@example.com", role, time.Now())
	return u
}

func TestCheckAgentAccess(t *testing.T) {
	ctx := context.Background()

	agents := &fakeAgentRepo{agents: map[uint]*agent.Agent{
		1: testAgent(t, 1, 100, agent.StatusOnline, 10000, 20000),
		2: testAgent(t, 2, 100, agent.StatusOffline, 0, 0),
	}}
	shares := &fakeShareRepo{shared: map[[2]uint]bool{
		{1, 200}: true,
	}}
	users := &fakeUserRepo{users: map[uint]*user.User{
		100: testUser(t, 100, user.RoleUser),
		200: testUser(t, 200, user.RoleUser),
		300: testUser(t, 300, user.RoleUser),
		400: testUser(t, 400, user.RoleAdmin),
	}}

	tests := []struct {
		name     string
		agentID  uint
		userID   uint
		port     uint16
		wantType apperrors.ErrorType
		wantErr  error
	}{
		{"owner on own agent", 1, 100, 15000, "", nil},
		{"shared user", 1, 200, 15000, "", nil},
		{"admin without share", 1, 400, 15000, "", nil},
		{"stranger", 1, 300, 15000, apperrors.ErrorTypeForbidden, agent.ErrPermissionDenied},
		{"unknown agent", 9, 100, 15000, apperrors.ErrorTypeNotFound, agent.ErrAgentNotFound},
		{"offline agent", 2, 100, 0, apperrors.ErrorTypeConflict, agent.ErrAgentOffline},
		{"port below range", 1, 100, 9000, apperrors.ErrorTypeValidation, agent.ErrPortOutOfRange},
		{"port above range", 1, 100, 30000, apperrors.ErrorTypeValidation, agent.ErrPortOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := CheckAgentAccess(ctx, users, agents, shares, tt.agentID, tt.userID, tt.port)
			if tt.wantType == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.agentID, a.ID())
				return
			}
			require.Error(t, err)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			// The domain sentinel survives the HTTP-facing wrap.
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type fakeForwardRepo struct {
	running map[uint16]*forward.Forward
}

func (r *fakeForwardRepo) Create(ctx context.Context, f *forward.Forward) error { return nil }
func (r *fakeForwardRepo) GetByID(ctx context.Context, id uint) (*forward.Forward, error) {
	return nil, forward.ErrForwardNotFound
}
func (r *fakeForwardRepo) Update(ctx context.Context, f *forward.Forward) error { return nil }

func (r *fakeForwardRepo) FindRunningByAgentPort(ctx context.Context, agentID uint, port uint16) (*forward.Forward, error) {
	return r.running[port], nil
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

func TestCreateForwardPortConflict(t *testing.T) {
	ctx := context.Background()

	agents := &fakeAgentRepo{agents: map[uint]*agent.Agent{
		1: testAgent(t, 1, 100, agent.StatusOnline, 10000, 20000),
	}}
	shares := &fakeShareRepo{shared: map[[2]uint]bool{}}
	users := &fakeUserRepo{users: map[uint]*user.User{
		100: testUser(t, 100, user.RoleUser),
	}}

	bound, err := forward.NewForward(100, 1, vo.MethodGost, forward.Options{}, 15000, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	forwards := &fakeForwardRepo{running: map[uint16]*forward.Forward{15000: bound}}

	uc := NewCreateForwardUseCase(forwards, agents, shares, users, nil, testLogger())
	_, err = uc.Execute(ctx, CreateForwardCommand{
		UserID:     100,
		AgentID:    1,
		Method:     string(vo.MethodGost),
		AgentPort:  15000,
		Target:     "203.0.113.10",
		TargetPort: 3306,
		TargetType: string(vo.TargetExternal),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, forward.ErrPortConflict)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
}

func TestCheckAgentAccessAnyPort(t *testing.T) {
	ctx := context.Background()

	agents := &fakeAgentRepo{agents: map[uint]*agent.Agent{
		1: testAgent(t, 1, 100, agent.StatusOnline, 10000, 20000),
	}}
	shares := &fakeShareRepo{shared: map[[2]uint]bool{}}
	users := &fakeUserRepo{users: map[uint]*user.User{
		100: testUser(t, 100, user.RoleUser),
	}}

	// Port 0 means "any": the agent picks, so the range check is skipped.
	_, err := CheckAgentAccess(ctx, users, agents, shares, 1, 100, 0)
	assert.NoError(t, err)
}
