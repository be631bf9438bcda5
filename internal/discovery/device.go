package discovery

import (
	"encoding/binary"
	"net"
	"sort"
)

// Device is an immutable record of one host observed on the local subnet.
// Identity for deduplication is IP.
type Device struct {
	IP           string `json:"ip"`
	MAC          string `json:"mac"`
	Manufacturer string `json:"manufacturer"`
	Hostname     string `json:"hostname"`
}

// sortDevices orders devices ascending by numeric IPv4 value. Devices with
// an unparsable IP (shouldn't occur in practice) sort last.
func sortDevices(devices []Device) {
	sort.Slice(devices, func(i, j int) bool {
		a, aok := ipv4Uint32(devices[i].IP)
		b, bok := ipv4Uint32(devices[j].IP)
		if aok != bok {
			return aok
		}
		return a < b
	})
}

func ipv4Uint32(s string) (uint32, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

// canonicalMAC renders a hardware address as lowercase colon-hex, matching
// the form OUI lookups expect.
func canonicalMAC(mac net.HardwareAddr) string {
	return mac.String()
}
