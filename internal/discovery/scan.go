// Package discovery implements the ARP-sweep LAN discovery engine (C3):
// burst ARP requests across the operator's own subnet, listen for replies
// under a bounded deadline, and return a deduplicated, sorted device list.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/netdiag/backend/internal/iface"
	"github.com/netdiag/backend/internal/oui"
)

// defaultDeadline bounds the listen phase (spec.md §4.3 step 7).
const defaultDeadline = 5 * time.Second

// datalinkChannel is the subset of *pcap.Handle this package depends on,
// narrowed so tests can substitute an in-memory double.
type datalinkChannel interface {
	WritePacketData(data []byte) error
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
	Close()
}

// resolveFunc locates the default-gateway interface (C2's contract).
type resolveFunc func() (*iface.Handle, error)

// openFunc opens a read/write Ethernet channel on the named interface.
type openFunc func(name string) (datalinkChannel, error)

func openPcapLive(name string) (datalinkChannel, error) {
	handle, err := pcap.OpenLive(name, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	if handle.LinkType() != layers.LinkTypeEthernet {
		handle.Close()
		return nil, ErrChannelCreationFailure
	}
	return handle, nil
}

// Scanner performs ARP sweeps. Construct with New, tune with Options.
type Scanner struct {
	log      *slog.Logger
	registry *oui.Registry
	resolve  resolveFunc
	open     openFunc
	deadline time.Duration
	// scanDelay paces the burst phase: a small fixed delay between ARP
	// request frames, so a burst doesn't saturate small/embedded switches.
	// Zero (the default) reproduces spec.md §4.3 step 5 exactly.
	scanDelay time.Duration
	nowFunc   func() time.Time
	lookupPTR func(ip string) (string, bool)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger overrides the destination for scan diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithDeadline overrides the listen-phase wall-clock bound (default 5s).
func WithDeadline(d time.Duration) Option {
	return func(s *Scanner) { s.deadline = d }
}

// WithScanDelay paces the burst phase with a fixed delay between frames.
func WithScanDelay(d time.Duration) Option {
	return func(s *Scanner) { s.scanDelay = d }
}

// WithResolveFunc overrides interface resolution, for testing.
func WithResolveFunc(f resolveFunc) Option {
	return func(s *Scanner) { s.resolve = f }
}

// WithOpenFunc overrides channel creation, for testing.
func WithOpenFunc(f openFunc) Option {
	return func(s *Scanner) { s.open = f }
}

// New constructs a Scanner backed by the given OUI registry.
func New(registry *oui.Registry, opts ...Option) *Scanner {
	s := &Scanner{
		log:       slog.Default(),
		registry:  registry,
		resolve:   iface.Resolve,
		open:      openPcapLive,
		deadline:  defaultDeadline,
		nowFunc:   time.Now,
		lookupPTR: reverseDNS,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan runs one full sweep: resolve the interface, open the channel, burst
// ARP requests across the subnet, listen for replies until the deadline,
// and return the deduplicated device list sorted by numeric IPv4 value.
// The host itself is always present as the first logical entry (sort order
// still applies — it just happens to be included like any other device).
func (s *Scanner) Scan(ctx context.Context) ([]Device, error) {
	h, err := s.resolve()
	if err != nil {
		if errors.Is(err, iface.ErrDefaultInterfaceNotFound) {
			return nil, ErrDefaultInterfaceNotFound
		}
		if errors.Is(err, iface.ErrNoActiveInterface) {
			return nil, ErrNoActiveInterface
		}
		return nil, &IoError{Cause: err}
	}

	ch, err := s.open(h.Name)
	if err != nil {
		if errors.Is(err, ErrChannelCreationFailure) {
			return nil, ErrChannelCreationFailure
		}
		return nil, &IoError{Cause: err}
	}
	defer ch.Close()

	network := &net.IPNet{
		IP:   h.IPv4.Mask(net.CIDRMask(h.PrefixLen, 32)),
		Mask: net.CIDRMask(h.PrefixLen, 32),
	}

	found := make(map[string]Device)
	var mu sync.Mutex

	s.insertSelf(found, &mu, h)

	s.burst(ctx, ch, h, network)

	s.listen(ctx, ch, found, &mu)

	mu.Lock()
	devices := make([]Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	mu.Unlock()

	sortDevices(devices)
	return devices, nil
}

func (s *Scanner) insertSelf(found map[string]Device, mu *sync.Mutex, h *iface.Handle) {
	mac := canonicalMAC(h.HardwareMAC)
	d := Device{
		IP:           h.IPv4.String(),
		MAC:          mac,
		Manufacturer: s.registry.Manufacturer(mac),
		Hostname:     s.resolveHostname(h.IPv4.String()),
	}
	mu.Lock()
	found[d.IP] = d
	mu.Unlock()
}

// burst sends one ARP request to every address in network other than self.
// Per-frame send failures are logged and otherwise ignored (spec.md §4.3).
func (s *Scanner) burst(ctx context.Context, ch datalinkChannel, h *iface.Handle, network *net.IPNet) {
	for target := range ipv4Range(network) {
		if target.Equal(h.IPv4) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := buildARPRequest(h.HardwareMAC, h.IPv4, target)
		if err != nil {
			s.log.Debug("discovery: failed to build ARP request", "target", target.String(), "error", err)
			continue
		}
		if err := ch.WritePacketData(frame); err != nil {
			s.log.Debug("discovery: failed to send ARP request", "target", target.String(), "error", err)
		}
		if s.scanDelay > 0 {
			time.Sleep(s.scanDelay)
		}
	}
}

// listen reads frames from ch until ctx is done, enriching and inserting
// any not-yet-seen ARP reply sender into found. It never returns an error:
// read failures end the loop silently, preserving whatever was collected.
func (s *Scanner) listen(ctx context.Context, ch datalinkChannel, found map[string]Device, mu *sync.Mutex) {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			data, _, err := ch.ReadPacketData()
			if err != nil {
				return
			}
			reply, ok := parseARPReply(data)
			if !ok {
				continue
			}
			ip := reply.SenderIP.String()

			mu.Lock()
			_, exists := found[ip]
			mu.Unlock()
			if exists {
				continue
			}

			mac := canonicalMAC(reply.SenderMAC)
			d := Device{
				IP:           ip,
				MAC:          mac,
				Manufacturer: s.registry.Manufacturer(mac),
				Hostname:     s.resolveHostname(ip),
			}

			mu.Lock()
			if _, exists := found[ip]; !exists {
				found[ip] = d
			}
			mu.Unlock()

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
}

func (s *Scanner) resolveHostname(ip string) string {
	if name, ok := s.lookupPTR(ip); ok {
		return name
	}
	return "Unknown"
}

func reverseDNS(ip string) (string, bool) {
	names, err := net.LookupAddr(ip)
	if err != nil || len(names) == 0 {
		return "", false
	}
	return strings.TrimSuffix(names[0], "."), true
}

// ipv4Range yields every IPv4 address in network, in ascending order.
func ipv4Range(network *net.IPNet) <-chan net.IP {
	ch := make(chan net.IP)
	go func() {
		defer close(ch)
		ones, bits := network.Mask.Size()
		if bits != 32 {
			return
		}
		hostBits := uint(bits - ones)
		if hostBits == 0 || hostBits > 24 {
			// A /32 has nothing to sweep; anything bigger than a /8 is
			// almost certainly a misconfiguration we shouldn't try to
			// enumerate address-by-address.
			return
		}
		count := uint32(1) << hostBits
		base := ip4ToUint32(network.IP)
		for i := uint32(0); i < count; i++ {
			ch <- uint32ToIP4(base + i)
		}
	}()
	return ch
}

func ip4ToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func uint32ToIP4(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
