package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netdiag/backend/internal/stress"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	engine := stress.New(
		stress.WithProbeFunc(stress.SimulatedProbeFunc(time.Millisecond)),
	)
	return New(WithEngine(engine))
}

func TestValidateStressTarget(t *testing.T) {
	b := newTestBackend(t)

	ok, err := b.ValidateStressTarget("192.168.1.1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.ValidateStressTarget("8.8.8.8")
	require.Error(t, err)
	require.False(t, ok)
}

func TestStressTestLifecycle(t *testing.T) {
	b := newTestBackend(t)
	cfg := stress.StressTestConfig{
		TargetIP:        "192.168.1.77",
		TestType:        stress.TestTypePingFlood,
		Intensity:       stress.IntensityHigh,
		DurationSeconds: 300,
	}

	status, err := b.GetStressTestStatus()
	require.NoError(t, err)
	require.Equal(t, stress.TestStatusIdle, status)

	testID, err := b.StartStressTest(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, testID)

	require.Eventually(t, func() bool {
		status, _ := b.GetStressTestStatus()
		return status == stress.TestStatusRunning
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.ConfirmStressAlive())

	metrics, err := b.GetStressTestMetrics()
	require.NoError(t, err)
	require.GreaterOrEqual(t, metrics.PacketsSent, uint64(0))

	require.NoError(t, b.StopStressTest())

	result, err := b.GetCurrentStressTest()
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, testID, result.TestID)
	require.Equal(t, stress.TestStatusCompleted, result.Status)
}

func TestGetCurrentStressTest_NilBeforeAnyTest(t *testing.T) {
	b := newTestBackend(t)
	result, err := b.GetCurrentStressTest()
	require.NoError(t, err)
	require.Nil(t, result)
}
