// Package iface locates the host's default-gateway network interface and
// its IPv4 addressing, so the discovery engine knows which link to sweep.
package iface

import (
	"fmt"
	"net"

	nl "github.com/vishvananda/netlink"
)

// Handle describes the resolved default-route interface: its kernel index
// and name, its IPv4 source address and prefix length, and its hardware
// address, ready to seed a datalink channel and an ARP sweep.
type Handle struct {
	Index       int
	Name        string
	IPv4        net.IP
	PrefixLen   int
	HardwareMAC net.HardwareAddr
}

// Resolve enumerates the kernel's IPv4 routing table for the default route
// (destination 0.0.0.0/0), resolves the link it egresses through, and reads
// that link's IPv4 address and hardware address.
//
// Fails with ErrDefaultInterfaceNotFound if no default route exists, and
// ErrNoActiveInterface if the resolved link lacks an IPv4 address or a MAC
// (some tunnel/virtual links have neither — see DESIGN.md for why this
// returns an error here instead of panicking, unlike the tool this was
// built from).
func Resolve() (*Handle, error) {
	return resolve(nl.RouteList, nl.LinkByIndex, nl.AddrList)
}

type routeListFunc func(nl.Link, int) ([]nl.Route, error)
type linkByIndexFunc func(int) (nl.Link, error)
type addrListFunc func(nl.Link, int) ([]nl.Addr, error)

// resolve is the testable core of Resolve, with the netlink calls injected
// so unit tests can exercise the selection logic without a real routing
// table.
func resolve(routeList routeListFunc, linkByIndex linkByIndexFunc, addrList addrListFunc) (*Handle, error) {
	routes, err := routeList(nil, nl.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("iface: error listing routes: %w", err)
	}

	linkIndex, ok := defaultRouteLinkIndex(routes)
	if !ok {
		return nil, ErrDefaultInterfaceNotFound
	}

	link, err := linkByIndex(linkIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoActiveInterface, err)
	}

	mac := link.Attrs().HardwareAddr
	if len(mac) == 0 {
		return nil, ErrNoActiveInterface
	}

	addrs, err := addrList(link, nl.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("iface: error listing addresses: %w", err)
	}

	for _, a := range addrs {
		if a.IP == nil || a.IP.To4() == nil {
			continue
		}
		ones, _ := a.IPNet.Mask.Size()
		return &Handle{
			Index:       linkIndex,
			Name:        link.Attrs().Name,
			IPv4:        a.IP.To4(),
			PrefixLen:   ones,
			HardwareMAC: mac,
		}, nil
	}

	return nil, ErrNoActiveInterface
}

// defaultRouteLinkIndex finds the route whose destination covers the whole
// IPv4 space (nil Dst, or a /0), which is the kernel's representation of a
// default route, and returns the link it egresses through.
func defaultRouteLinkIndex(routes []nl.Route) (int, bool) {
	for _, r := range routes {
		if r.Dst == nil {
			return r.LinkIndex, true
		}
		ones, bits := r.Dst.Mask.Size()
		if ones == 0 && bits > 0 {
			return r.LinkIndex, true
		}
	}
	return 0, false
}
