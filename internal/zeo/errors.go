package zeo

import "errors"

// Sentinel errors for catalog and transport operations.
var (
	// ErrUnknownProtocol indicates a key that is not in the catalog.
	ErrUnknownProtocol = errors.New("zeo: unknown protocol")

	// ErrInvalidValue indicates a command value that cannot be coerced
	// to the integer the wire format requires.
	ErrInvalidValue = errors.New("zeo: invalid value")

	// ErrNotWritable indicates a command sent to a read-only attribute.
	ErrNotWritable = errors.New("zeo: protocol not writable")
)
