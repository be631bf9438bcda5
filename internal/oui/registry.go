// Package oui maps MAC address prefixes (OUIs) to vendor names, loaded once
// from an embedded IEEE-style assignment CSV.
package oui

import (
	_ "embed"
	"strings"
)

//go:embed oui.csv
var embeddedCSV []byte

// Unknown is returned by callers that choose to coalesce a missed lookup
// into a display string, rather than branching on the bool from Lookup.
const Unknown = "Unknown"

// Registry is an immutable prefix -> organization map. Safe for concurrent
// readers once constructed; nothing mutates it after New returns.
type Registry struct {
	byPrefix map[string]string
}

// New parses the embedded CSV and builds a Registry. The first line is a
// header and is skipped; any line with fewer than three comma-separated
// fields is skipped rather than treated as fatal, since vendor CSVs in the
// wild are not uniformly well-formed.
func New() *Registry {
	return newFromCSV(embeddedCSV)
}

func newFromCSV(data []byte) *Registry {
	r := &Registry{byPrefix: make(map[string]string)}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 4)
		if len(fields) < 3 {
			continue
		}
		assignment := strings.TrimSpace(fields[1])
		org := strings.TrimSpace(fields[2])
		if assignment == "" || org == "" {
			continue
		}
		prefix, ok := ouiPrefix(assignment)
		if !ok {
			continue
		}
		r.byPrefix[prefix] = org
	}
	return r
}

// ouiPrefix normalizes a bare 6-hex-digit IEEE assignment (e.g. "001A2B",
// as found unseparated in the registry CSV) into the colon-separated,
// lowercase form Lookup indexes by ("00:1a:2b"). Assignments that aren't
// exactly 6 hex digits are rejected.
func ouiPrefix(assignment string) (string, bool) {
	assignment = strings.ReplaceAll(assignment, "-", "")
	if len(assignment) != 6 {
		return "", false
	}
	lower := strings.ToLower(assignment)
	for _, c := range lower {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return "", false
		}
	}
	return lower[0:2] + ":" + lower[2:4] + ":" + lower[4:6], true
}

// Lookup returns the organization registered for mac's 24-bit OUI prefix,
// and whether a match was found. mac may be in any case; only its first
// 8 characters (two hex octets, colon, two, colon, two) are consulted.
func (r *Registry) Lookup(mac string) (string, bool) {
	mac = strings.ToLower(mac)
	if len(mac) < 8 {
		return "", false
	}
	org, ok := r.byPrefix[mac[:8]]
	return org, ok
}

// Manufacturer is a convenience wrapper around Lookup that returns Unknown
// instead of a zero value/bool pair, matching the Device.manufacturer
// contract (spec.md §3).
func (r *Registry) Manufacturer(mac string) string {
	if org, ok := r.Lookup(mac); ok {
		return org
	}
	return Unknown
}

// Len reports the number of distinct OUI prefixes loaded.
func (r *Registry) Len() int {
	return len(r.byPrefix)
}
