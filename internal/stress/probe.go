package stress

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeResult is one round-trip measurement: a single packet sent and
// (maybe) answered.
type ProbeResult struct {
	Sent    bool
	Recv    bool
	RTT     time.Duration
}

// ProbeFunc sends one packet to target and reports whether it was answered.
// Implementations should respect ctx cancellation/deadline. A non-nil error
// indicates a transport-level failure (not simply "no reply").
type ProbeFunc func(ctx context.Context, target string) (ProbeResult, error)

// icmpProbe sends a single ICMP echo via pro-bing and reports the result.
// One pro-bing Pinger is created per call; the engine paces calls itself; pro-bing's
// own Interval/Count are not used here since the engine already serializes
// one probe per tick.
func icmpProbe(ctx context.Context, target string) (ProbeResult, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return ProbeResult{}, err
	}
	defer pinger.Stop()

	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	if err := pinger.RunWithContext(ctx); err != nil {
		return ProbeResult{Sent: true}, err
	}

	stats := pinger.Statistics()
	res := ProbeResult{Sent: stats.PacketsSent > 0}
	if stats.PacketsRecv > 0 {
		res.Recv = true
		res.RTT = stats.AvgRtt
	}
	return res, nil
}

// SimulatedProbeFunc returns a ProbeFunc that never touches the network: it
// reports a successful round trip at a fixed synthetic latency, or ctx's
// error if ctx is already done. It
// exists for environments where raw ICMP sockets aren't available (tests,
// containers without CAP_NET_RAW) and for exercising the engine's pacing
// and safety logic deterministically.
func SimulatedProbeFunc(rtt time.Duration) ProbeFunc {
	return func(ctx context.Context, target string) (ProbeResult, error) {
		select {
		case <-ctx.Done():
			return ProbeResult{}, ctx.Err()
		default:
		}
		return ProbeResult{Sent: true, Recv: true, RTT: rtt}, nil
	}
}
