package forward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "veilink/internal/domain/forward/valueobjects"
)

func newTestForward(t *testing.T) *Forward {
	t.Helper()
	f, err := NewForward(1, 2, vo.MethodGost, Options{}, 0, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)
	require.NoError(t, f.SetID(10))
	return f
}

func TestNewForwardValidation(t *testing.T) {
	tests := []struct {
		name       string
		userID     uint
		agentID    uint
		method     vo.Method
		target     string
		targetType vo.TargetType
		targetAg   uint
		wantErr    bool
	}{
		{"valid external", 1, 2, vo.MethodGost, "203.0.113.10", vo.TargetExternal, 0, false},
		{"agent target resolves later", 1, 2, vo.MethodGost, "", vo.TargetAgent, 3, false},
		{"missing user", 0, 2, vo.MethodGost, "203.0.113.10", vo.TargetExternal, 0, true},
		{"missing agent", 1, 0, vo.MethodGost, "203.0.113.10", vo.TargetExternal, 0, true},
		{"bad method", 1, 2, "teleport", "203.0.113.10", vo.TargetExternal, 0, true},
		{"agent target without id", 1, 2, vo.MethodGost, "", vo.TargetAgent, 0, true},
		{"external target empty", 1, 2, vo.MethodGost, "", vo.TargetExternal, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForward(tt.userID, tt.agentID, tt.method, Options{}, 0, 3306, tt.target, tt.targetType, tt.targetAg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMarkRunningIsIdempotent(t *testing.T) {
	f := newTestForward(t)

	assert.True(t, f.MarkRunning(20001))
	assert.Equal(t, vo.StatusRunning, f.Status())
	assert.Equal(t, uint16(20001), f.AgentPort())

	// Duplicate result must not re-mutate.
	assert.False(t, f.MarkRunning(30000))
	assert.Equal(t, uint16(20001), f.AgentPort())

	// Late failure for an already-running forward is dropped.
	assert.False(t, f.MarkCreateFailed())
	assert.Equal(t, vo.StatusRunning, f.Status())
}

func TestMarkRunningKeepsRequestedPort(t *testing.T) {
	f, err := NewForward(1, 2, vo.MethodGost, Options{}, 15000, 3306, "203.0.113.10", vo.TargetExternal, 0)
	require.NoError(t, err)

	assert.True(t, f.MarkRunning(0))
	assert.Equal(t, uint16(15000), f.AgentPort())
}

func TestTeardownLifecycle(t *testing.T) {
	f := newTestForward(t)
	assert.False(t, f.EverBound())

	require.True(t, f.MarkRunning(20001))
	assert.True(t, f.EverBound())

	assert.True(t, f.MarkStopped())
	assert.False(t, f.MarkStopped())
	assert.True(t, f.EverBound())

	f.MarkDeleted()
	assert.True(t, f.IsDeleted())
}

func TestResolveTarget(t *testing.T) {
	f, err := NewForward(1, 2, vo.MethodGost, Options{}, 0, 0, "", vo.TargetAgent, 3)
	require.NoError(t, err)

	f.ResolveTarget("198.51.100.7", 20001)
	assert.Equal(t, "198.51.100.7", f.Target())
	assert.Equal(t, uint16(20001), f.TargetPort())

	// Port 0 keeps the previous target port.
	f.ResolveTarget("198.51.100.8", 0)
	assert.Equal(t, uint16(20001), f.TargetPort())
}

func TestAddTraffic(t *testing.T) {
	f := newTestForward(t)
	f.AddTraffic(100, 40)
	f.AddTraffic(50, 10)
	assert.Equal(t, int64(150), f.Download())
	assert.Equal(t, int64(50), f.Upload())
	assert.Equal(t, int64(200), f.UsedTraffic())
}
