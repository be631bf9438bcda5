package iface

import "errors"

var (
	// ErrDefaultInterfaceNotFound is returned when the OS has no default
	// route to inspect.
	ErrDefaultInterfaceNotFound = errors.New("default network interface not found")

	// ErrNoActiveInterface is returned when the resolved default-route
	// interface has no usable IPv4 address or no hardware address.
	ErrNoActiveInterface = errors.New("no active network interface")
)
