package stress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntensity_ToPacketsPerSecond(t *testing.T) {
	require.Equal(t, uint32(10), IntensityLow.ToPacketsPerSecond())
	require.Equal(t, uint32(50), IntensityMedium.ToPacketsPerSecond())
	require.Equal(t, uint32(100), IntensityHigh.ToPacketsPerSecond())
	require.Equal(t, uint32(10), Intensity("bogus").ToPacketsPerSecond())
}

func TestStressTestConfig_Validate(t *testing.T) {
	limits := DefaultSafetyLimits()

	valid := StressTestConfig{
		TargetIP:        "192.168.1.1",
		TestType:        TestTypePingFlood,
		Intensity:       IntensityMedium,
		DurationSeconds: 30,
	}
	require.NoError(t, valid.Validate(limits))

	publicTarget := valid
	publicTarget.TargetIP = "1.1.1.1"
	require.ErrorIs(t, publicTarget.Validate(limits), ErrInvalidTargetIP)

	tooLong := valid
	tooLong.DurationSeconds = limits.MaxDurationSeconds + 1
	require.ErrorIs(t, tooLong.Validate(limits), ErrDurationTooLong)

	zeroDuration := valid
	zeroDuration.DurationSeconds = 0
	require.NoError(t, zeroDuration.Validate(limits))

	tooFast := valid
	tooFast.Intensity = IntensityHigh
	strictLimits := limits
	strictLimits.MaxPacketsPerSecond = 50
	require.ErrorIs(t, tooFast.Validate(strictLimits), ErrRateLimitExceeded)
}

func TestNewTestID_IsUniquePerMillisecond(t *testing.T) {
	t1, err := time.Parse(time.RFC3339Nano, "2026-01-01T00:00:00.001Z")
	require.NoError(t, err)
	t2, err := time.Parse(time.RFC3339Nano, "2026-01-01T00:00:00.002Z")
	require.NoError(t, err)

	a := newTestID(t1)
	b := newTestID(t2)
	require.NotEqual(t, a, b)
	require.Contains(t, a, "test_")
}
