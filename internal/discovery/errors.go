package discovery

import "errors"

// These, together with IoError below, are the only failures that abort a
// scan wholesale; everything else (a dropped frame, a failed reverse
// lookup) degrades gracefully instead of failing the scan.
var (
	ErrDefaultInterfaceNotFound = errors.New("default network interface not found")
	ErrNoActiveInterface        = errors.New("no active network interface")
	ErrChannelCreationFailure   = errors.New("failed to create datalink channel")
)

// IoError wraps an underlying failure encountered while resolving the
// interface or opening the datalink channel. Read and send failures on an
// open channel never produce it. It is distinct from the sentinel errors
// above because it always carries an underlying cause.
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return "scan: io error: " + e.Cause.Error() }
func (e *IoError) Unwrap() error { return e.Cause }
