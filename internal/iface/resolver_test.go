package iface

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	nl "github.com/vishvananda/netlink"
)

func mustIPNet(t *testing.T, cidr string) *net.IPNet {
	t.Helper()
	_, n, err := net.ParseCIDR(cidr)
	require.NoError(t, err)
	return n
}

type stubLink struct {
	attrs nl.LinkAttrs
}

func (s *stubLink) Attrs() *nl.LinkAttrs { return &s.attrs }
func (s *stubLink) Type() string         { return "stub" }

func TestResolve_HappyPath(t *testing.T) {
	mac, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)

	link := &stubLink{attrs: nl.LinkAttrs{Index: 4, Name: "eth0", HardwareAddr: mac}}

	routeList := func(nl.Link, int) ([]nl.Route, error) {
		return []nl.Route{
			{LinkIndex: 7, Dst: mustIPNet(t, "10.10.0.0/16")},
			{LinkIndex: 4, Dst: nil}, // default route
		}, nil
	}
	linkByIndex := func(idx int) (nl.Link, error) {
		require.Equal(t, 4, idx)
		return link, nil
	}
	addrList := func(nl.Link, int) ([]nl.Addr, error) {
		return []nl.Addr{{IPNet: &net.IPNet{IP: net.ParseIP("192.168.1.50").To4(), Mask: net.CIDRMask(24, 32)}}}, nil
	}

	h, err := resolve(routeList, linkByIndex, addrList)
	require.NoError(t, err)
	require.Equal(t, "eth0", h.Name)
	require.Equal(t, 4, h.Index)
	require.Equal(t, 24, h.PrefixLen)
	require.Equal(t, "192.168.1.50", h.IPv4.String())
	require.Equal(t, mac, h.HardwareMAC)
}

func TestResolve_NoDefaultRoute(t *testing.T) {
	routeList := func(nl.Link, int) ([]nl.Route, error) {
		return []nl.Route{{LinkIndex: 7, Dst: mustIPNet(t, "10.10.0.0/16")}}, nil
	}
	_, err := resolve(routeList, nil, nil)
	require.ErrorIs(t, err, ErrDefaultInterfaceNotFound)
}

func TestResolve_LinkLookupFails(t *testing.T) {
	routeList := func(nl.Link, int) ([]nl.Route, error) {
		return []nl.Route{{LinkIndex: 4, Dst: nil}}, nil
	}
	linkByIndex := func(int) (nl.Link, error) {
		return nil, errors.New("no such link")
	}
	_, err := resolve(routeList, linkByIndex, nil)
	require.ErrorIs(t, err, ErrNoActiveInterface)
}

func TestResolve_MissingMAC(t *testing.T) {
	link := &stubLink{attrs: nl.LinkAttrs{Index: 4, Name: "tun0"}}
	routeList := func(nl.Link, int) ([]nl.Route, error) {
		return []nl.Route{{LinkIndex: 4, Dst: nil}}, nil
	}
	linkByIndex := func(int) (nl.Link, error) { return link, nil }

	_, err := resolve(routeList, linkByIndex, nil)
	require.ErrorIs(t, err, ErrNoActiveInterface)
}

func TestResolve_NoIPv4Address(t *testing.T) {
	mac, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	link := &stubLink{attrs: nl.LinkAttrs{Index: 4, Name: "eth0", HardwareAddr: mac}}

	routeList := func(nl.Link, int) ([]nl.Route, error) {
		return []nl.Route{{LinkIndex: 4, Dst: nil}}, nil
	}
	linkByIndex := func(int) (nl.Link, error) { return link, nil }
	addrList := func(nl.Link, int) ([]nl.Addr, error) { return nil, nil }

	_, err = resolve(routeList, linkByIndex, addrList)
	require.ErrorIs(t, err, ErrNoActiveInterface)
}
