package stress

import "testing"

func TestIsPrivateIP(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.15.255.255", false}, // just below the 172.16/12 block
		{"172.32.0.1", false},     // just above it
		{"192.168.0.1", true},
		{"192.167.255.255", false},
		{"8.8.8.8", false},
		{"not-an-ip", false},
		{"::1", false},
	}
	for _, c := range cases {
		if got := isPrivateIP(c.ip); got != c.want {
			t.Errorf("isPrivateIP(%q) = %v, want %v", c.ip, got, c.want)
		}
	}
}
