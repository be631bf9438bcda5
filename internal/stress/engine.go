package stress

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Engine runs at most one stress test at a time and exposes the safety
// gates (private-IP validation, rate/duration caps, per-target cooldown,
// dead man's switch, circuit breaker) that keep it from becoming a weapon.
// Construct with New, tune with Options.
type Engine struct {
	log       *slog.Logger
	limits    SafetyLimits
	probeFunc ProbeFunc
	nowFunc   func() time.Time

	mu               sync.Mutex
	current          *TestResult // the test record; nil before the first test
	liveMetrics      TestMetrics // live snapshot, distinct from current.FinalMetrics
	cancel           context.CancelFunc
	lastConfirmation time.Time
	cooldownTargets  map[string]time.Time
	wg               sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the destination for engine diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSafetyLimits overrides the default limits (spec.md's documented
// defaults — see DefaultSafetyLimits).
func WithSafetyLimits(limits SafetyLimits) Option {
	return func(e *Engine) { e.limits = limits }
}

// WithProbeFunc overrides the per-packet probe, e.g. for SimulatedProbeFunc
// in environments without raw socket access, or in tests.
func WithProbeFunc(f ProbeFunc) Option {
	return func(e *Engine) { e.probeFunc = f }
}

// WithNowFunc overrides the engine's clock, for deterministic tests.
func WithNowFunc(f func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = f }
}

// New constructs an idle Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:             slog.Default(),
		limits:          DefaultSafetyLimits(),
		probeFunc:       icmpProbe,
		nowFunc:         time.Now,
		cooldownTargets: make(map[string]time.Time),
	}
	for _, o := range opts {
		o(e)
	}
	e.lastConfirmation = e.nowFunc()
	return e
}

// ValidateTargetIP reports whether ip is an allowed stress-test target.
func (e *Engine) ValidateTargetIP(ip string) error {
	if !isPrivateIP(ip) {
		return ErrInvalidTargetIP
	}
	return nil
}

// ValidateTestConfig checks cfg against rate/duration limits, whether a
// test is already running, and any active per-target cooldown, in that
// order — matching the order StartStressTest itself enforces.
func (e *Engine) ValidateTestConfig(cfg StressTestConfig) error {
	if err := cfg.Validate(e.limits); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isRunningLocked() {
		return ErrTestAlreadyRunning
	}
	return e.checkCooldownLocked(cfg.TargetIP)
}

func (e *Engine) isRunningLocked() bool {
	return e.current != nil && e.current.Status == TestStatusRunning
}

func (e *Engine) checkCooldownLocked(target string) error {
	last, ok := e.cooldownTargets[target]
	if !ok {
		return nil
	}
	cooldown := time.Duration(e.limits.MinCooldownSeconds) * time.Second
	elapsed := e.nowFunc().Sub(last)
	if elapsed >= cooldown {
		return nil
	}
	remaining := uint64((cooldown - elapsed).Seconds())
	if remaining == 0 {
		remaining = 1
	}
	return &CooldownActiveError{RemainingSeconds: remaining}
}

// checkResources is a hook for CPU/memory pressure gating. No example in
// this codebase's dependency graph imports a resource-sampling library
// directly (gopsutil appears only as an indirect, transitive dependency
// elsewhere in the module graph), so this stays a no-op boundary rather
// than a hand-rolled /proc reader: wire a real sampler here if one becomes
// a direct dependency.
func (e *Engine) checkResources() error {
	return nil
}

// StartStressTest validates cfg, reserves the single-flight slot, and
// launches the paced probe loop in the background. It returns the new
// test's ID immediately; use GetCurrentStatus/GetCurrentMetrics to poll.
func (e *Engine) StartStressTest(ctx context.Context, cfg StressTestConfig) (string, error) {
	if err := cfg.Validate(e.limits); err != nil {
		return "", err
	}
	if err := e.checkResources(); err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.isRunningLocked() {
		e.mu.Unlock()
		return "", ErrTestAlreadyRunning
	}
	if err := e.checkCooldownLocked(cfg.TargetIP); err != nil {
		e.mu.Unlock()
		return "", err
	}

	now := e.nowFunc()
	testID := newTestID(now)
	result := &TestResult{
		TestID:          testID,
		TargetIP:        cfg.TargetIP,
		TestType:        cfg.TestType,
		Intensity:       cfg.Intensity,
		DurationSeconds: cfg.DurationSeconds,
		StartTimeMS:     now.UnixMilli(),
		Status:          TestStatusRunning,
	}
	e.current = result
	e.liveMetrics = TestMetrics{}
	e.cooldownTargets[cfg.TargetIP] = now
	e.lastConfirmation = now

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runLoop(runCtx, cfg, result)
	}()

	return testID, nil
}

// runLoop paces one probe per tick at the configured intensity, watching
// duration, cancellation, the dead man's switch, and a packet-loss circuit
// breaker, until exactly one of them ends the test.
func (e *Engine) runLoop(ctx context.Context, cfg StressTestConfig, result *TestResult) {
	pps := cfg.Intensity.ToPacketsPerSecond()
	ticker := time.NewTicker(time.Duration(1000/int64(pps)) * time.Millisecond)
	defer ticker.Stop()

	deadline := e.nowFunc().Add(time.Duration(cfg.DurationSeconds) * time.Second)
	metricsEvery := uint64(pps / 10)
	if metricsEvery == 0 {
		metricsEvery = 1
	}

	var sent, recv uint64
	var latencies []float64

	for {
		select {
		case <-ctx.Done():
			// StopCurrentTest marks the result Completed in the same critical
			// section that cancels; any other cancellation (the caller's ctx)
			// leaves it Running, so record it here as a user cancellation.
			e.mu.Lock()
			running := result.Status == TestStatusRunning
			e.mu.Unlock()
			if running {
				e.finalize(result, TestStatusFailed, ErrUserCancelled.Error(), sent, recv, latencies)
			}
			return
		case <-ticker.C:
			now := e.nowFunc()
			if !now.Before(deadline) {
				e.finalize(result, TestStatusCompleted, "", sent, recv, latencies)
				return
			}

			e.mu.Lock()
			lastConfirmation := e.lastConfirmation
			e.mu.Unlock()
			if now.Sub(lastConfirmation) > time.Duration(e.limits.DeadMansSwitchIntervalSeconds)*time.Second {
				e.log.Warn("stress: dead man's switch triggered", "test_id", result.TestID)
				e.finalize(result, TestStatusFailed, ErrDeadMansSwitchTriggered.Error(), sent, recv, latencies)
				return
			}

			res, err := e.probeFunc(ctx, cfg.TargetIP)
			sent++
			if err == nil && res.Recv {
				recv++
				latencies = append(latencies, float64(res.RTT.Microseconds())/1000.0)
			}

			if sent%metricsEvery == 0 {
				e.mu.Lock()
				e.liveMetrics = computeMetrics(sent, recv, latencies, e.nowFunc())
				e.mu.Unlock()
			}

			if sent > 100 && float64(recv)/float64(sent) < 0.1 {
				e.log.Warn("stress: circuit breaker triggered on high packet loss", "test_id", result.TestID, "sent", sent, "received", recv)
				e.finalize(result, TestStatusCompleted, "", sent, recv, latencies)
				return
			}
		}
	}
}

// finalize records final metrics and terminal status under lock, then
// releases the single-flight slot's cancel func. The result/current slot
// itself is left in place so callers can still read it until a new test
// starts.
func (e *Engine) finalize(result *TestResult, status TestStatus, errMsg string, sent, recv uint64, latencies []float64) {
	now := e.nowFunc()
	e.mu.Lock()
	defer e.mu.Unlock()
	metrics := computeMetrics(sent, recv, latencies, now)
	e.liveMetrics = metrics
	result.FinalMetrics = &metrics
	result.Status = status
	result.ErrorMessage = errMsg
	endMS := now.UnixMilli()
	result.EndTimeMS = &endMS
	e.cancel = nil
}

// StopCurrentTest cancels the running test, if any, and marks it completed
// immediately. Safe to call when no test is running (no-op).
func (e *Engine) StopCurrentTest() error {
	e.mu.Lock()
	if e.cancel == nil {
		e.mu.Unlock()
		return nil
	}
	cancel := e.cancel
	e.cancel = nil
	// Raise cancellation first, then mark the result terminal.
	cancel()
	now := e.nowFunc()
	if e.current != nil {
		e.current.Status = TestStatusCompleted
		endMS := now.UnixMilli()
		e.current.EndTimeMS = &endMS
		metrics := e.liveMetrics
		e.current.FinalMetrics = &metrics
	}
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// GetCurrentStatus returns the current test's status, or Idle if no test
// has ever been started.
func (e *Engine) GetCurrentStatus() TestStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return TestStatusIdle
	}
	return e.current.Status
}

// GetCurrentMetrics returns the current (possibly still live) test's
// metrics snapshot.
func (e *Engine) GetCurrentMetrics() TestMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveMetrics
}

// GetCurrentTest returns a copy of the full current test result, or nil if
// no test has ever been started. The copy is taken under the same lock
// used to update status/FinalMetrics, so it never observes a torn pair.
func (e *Engine) GetCurrentTest() *TestResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	cp := *e.current
	return &cp
}

// ConfirmAlive resets the dead man's switch. The UI is expected to call
// this periodically (well within DeadMansSwitchIntervalSeconds) while a
// test runs.
func (e *Engine) ConfirmAlive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastConfirmation = e.nowFunc()
}

// CheckDeadMansSwitch reports ErrDeadMansSwitchTriggered if ConfirmAlive
// hasn't been called recently enough. It does not itself stop a running
// test; the run loop makes the same check on its own pace.
func (e *Engine) CheckDeadMansSwitch() error {
	e.mu.Lock()
	elapsed := e.nowFunc().Sub(e.lastConfirmation)
	e.mu.Unlock()
	if elapsed > time.Duration(e.limits.DeadMansSwitchIntervalSeconds)*time.Second {
		return ErrDeadMansSwitchTriggered
	}
	return nil
}

func computeMetrics(sent, recv uint64, latencies []float64, at time.Time) TestMetrics {
	m := TestMetrics{PacketsSent: sent, PacketsReceived: recv, TimestampMS: at.UnixMilli()}
	if sent > 0 {
		m.PacketLossPercentage = float64(sent-recv) / float64(sent) * 100
	}
	if len(latencies) > 0 {
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		mean := sum / float64(len(latencies))
		var variance float64
		for _, l := range latencies {
			variance += (l - mean) * (l - mean)
		}
		variance /= float64(len(latencies))

		m.LatencyMS = mean
		m.JitterMS = math.Sqrt(variance)
	}
	m.ThroughputMbps = float64(recv) * 0.001
	return m
}
