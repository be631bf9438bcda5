package stress

import "net"

// isPrivateIP reports whether ip is a dotted-quad IPv4 address inside one
// of the RFC1918 private ranges. Anything else — malformed input, IPv6,
// public addresses — is rejected, matching this engine's "never point a
// flood at something outside the operator's own network" guarantee.
func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	v4 := parsed.To4()
	if v4 == nil {
		return false
	}

	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	default:
		return false
	}
}
