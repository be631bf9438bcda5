package stress

import (
	"fmt"
	"time"
)

// TestType identifies which stress pattern a test runs. The variants are
// semantically distinct in intent but behaviorally isomorphic today — all
// of them measure round-trip success/latency via the same probe — kept
// separate in the API so behavior can diverge later without a breaking
// change.
type TestType string

const (
	TestTypePingFlood    TestType = "PingFlood"
	TestTypeBandwidthTest TestType = "BandwidthTest"
	TestTypeLatencyTest  TestType = "LatencyTest"
	TestTypePacketLoss   TestType = "PacketLoss"
)

// Intensity selects a packet rate tier. ToPacketsPerSecond gives the
// matching target rate in packets per second.
type Intensity string

const (
	IntensityLow    Intensity = "Low"
	IntensityMedium Intensity = "Medium"
	IntensityHigh   Intensity = "High"
)

// ToPacketsPerSecond maps an Intensity to its target packet rate. Unknown
// values fall back to IntensityLow's rate.
func (i Intensity) ToPacketsPerSecond() uint32 {
	switch i {
	case IntensityMedium:
		return 50
	case IntensityHigh:
		return 100
	default:
		return 10
	}
}

// TestStatus is the lifecycle state of a stress test run.
type TestStatus string

const (
	TestStatusIdle      TestStatus = "Idle"
	TestStatusRunning   TestStatus = "Running"
	TestStatusPaused    TestStatus = "Paused" // reserved, no engine path sets this today
	TestStatusCompleted TestStatus = "Completed"
	TestStatusFailed    TestStatus = "Failed"
)

// StressTestConfig is the operator-supplied request to start a test.
type StressTestConfig struct {
	TargetIP        string    `json:"target_ip"`
	TestType        TestType  `json:"test_type"`
	Intensity       Intensity `json:"intensity"`
	DurationSeconds uint32    `json:"duration_seconds"`
}

// SafetyLimits bounds what a StressTestConfig is allowed to request and how
// the engine watches itself while a test runs. Values mirror spec.md's
// documented defaults; DefaultSafetyLimits returns them.
type SafetyLimits struct {
	MaxPacketsPerSecond           uint32
	MaxDurationSeconds            uint32
	MinCooldownSeconds            uint64
	MaxCPUPercent                 float64
	MaxMemoryPercent              float64
	DeadMansSwitchIntervalSeconds uint64
}

// DefaultSafetyLimits returns the limits a fresh Engine is configured with
// unless overridden.
func DefaultSafetyLimits() SafetyLimits {
	return SafetyLimits{
		MaxPacketsPerSecond:           1000,
		MaxDurationSeconds:            300,
		MinCooldownSeconds:            5,
		MaxCPUPercent:                 80.0,
		MaxMemoryPercent:              70.0,
		DeadMansSwitchIntervalSeconds: 30,
	}
}

// Validate checks cfg against limits, independent of any running test or
// cooldown state (both of which the Engine checks separately).
func (cfg StressTestConfig) Validate(limits SafetyLimits) error {
	if !isPrivateIP(cfg.TargetIP) {
		return ErrInvalidTargetIP
	}
	if cfg.Intensity.ToPacketsPerSecond() > limits.MaxPacketsPerSecond {
		return ErrRateLimitExceeded
	}
	if cfg.DurationSeconds > limits.MaxDurationSeconds {
		return ErrDurationTooLong
	}
	return nil
}

// TestMetrics is the live/final measurement snapshot for a test run. Field
// names match spec.md's data model exactly, since they cross the UI bridge
// as JSON.
type TestMetrics struct {
	LatencyMS             float64 `json:"latency_ms"`
	JitterMS              float64 `json:"jitter_ms"`
	PacketLossPercentage  float64 `json:"packet_loss_percentage"`
	ThroughputMbps        float64 `json:"throughput_mbps"`
	PacketsSent           uint64  `json:"packets_sent"`
	PacketsReceived       uint64  `json:"packets_received"`
	TimestampMS           int64   `json:"timestamp"`
}

// TestResult is the full public record of one test: created at start,
// updated with final_metrics/error_message/end_time at completion.
type TestResult struct {
	TestID          string       `json:"test_id"`
	TargetIP        string       `json:"target_ip"`
	TestType        TestType     `json:"test_type"`
	Intensity       Intensity    `json:"intensity"`
	DurationSeconds uint32       `json:"duration_seconds"`
	StartTimeMS     int64        `json:"start_time"`
	EndTimeMS       *int64       `json:"end_time,omitempty"`
	Status          TestStatus   `json:"status"`
	FinalMetrics    *TestMetrics `json:"final_metrics,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
}

// newTestID derives a test identifier from a start timestamp, matching the
// "test_<unix millis>" scheme used by the frontend this engine serves.
func newTestID(at time.Time) string {
	return fmt.Sprintf("test_%d", at.UnixMilli())
}
