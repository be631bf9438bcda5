// Package bridge exposes the Go-level contract consumed by the UI shell:
// one method per operation, JSON-serializable arguments and results, and
// the underlying engines' errors returned unchanged as Go error values,
// whose Error() text is the message meant for the UI. It does not
// implement a transport (HTTP, unix socket, IPC framing) — that dispatch
// layer is mounted by whatever UI shell embeds this package.
package bridge

import (
	"context"
	"log/slog"

	"github.com/netdiag/backend/internal/discovery"
	"github.com/netdiag/backend/internal/oui"
	"github.com/netdiag/backend/internal/stress"
)

// Backend wires the discovery scanner and stress engine behind the UI
// bridge contract. Construct with New.
type Backend struct {
	log     *slog.Logger
	scanner *discovery.Scanner
	engine  *stress.Engine
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger overrides the destination for bridge diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithScanner overrides the discovery scanner (e.g. for tests).
func WithScanner(s *discovery.Scanner) Option {
	return func(b *Backend) { b.scanner = s }
}

// WithEngine overrides the stress engine (e.g. for tests).
func WithEngine(e *stress.Engine) Option {
	return func(b *Backend) { b.engine = e }
}

// New constructs a Backend with a fresh OUI registry, scanner, and stress
// engine, unless overridden by Options.
func New(opts ...Option) *Backend {
	b := &Backend{
		log:     slog.Default(),
		scanner: discovery.New(oui.New()),
		engine:  stress.New(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ScanNetwork runs one ARP sweep of the operator's local subnet.
func (b *Backend) ScanNetwork(ctx context.Context) ([]discovery.Device, error) {
	return b.scanner.Scan(ctx)
}

// ValidateStressTarget reports whether ip is an allowed stress-test target.
func (b *Backend) ValidateStressTarget(ip string) (bool, error) {
	if err := b.engine.ValidateTargetIP(ip); err != nil {
		return false, err
	}
	return true, nil
}

// StartStressTest validates and launches a stress test, returning its ID.
func (b *Backend) StartStressTest(ctx context.Context, cfg stress.StressTestConfig) (string, error) {
	return b.engine.StartStressTest(ctx, cfg)
}

// StopStressTest cancels the currently running test, if any.
func (b *Backend) StopStressTest() error {
	return b.engine.StopCurrentTest()
}

// GetStressTestStatus returns the current test's lifecycle status.
func (b *Backend) GetStressTestStatus() (stress.TestStatus, error) {
	return b.engine.GetCurrentStatus(), nil
}

// GetStressTestMetrics returns the current test's live metrics snapshot.
func (b *Backend) GetStressTestMetrics() (stress.TestMetrics, error) {
	return b.engine.GetCurrentMetrics(), nil
}

// GetCurrentStressTest returns the full current test result, or nil if no
// test has ever been started.
func (b *Backend) GetCurrentStressTest() (*stress.TestResult, error) {
	return b.engine.GetCurrentTest(), nil
}

// ConfirmStressAlive resets the dead man's switch for the running test.
func (b *Backend) ConfirmStressAlive() error {
	b.engine.ConfirmAlive()
	return nil
}
