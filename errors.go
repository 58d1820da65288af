package contentloader

import "errors"

// ErrInvalidArgument marks contract violations: invalid constructor arguments,
// nil registration functions, or malformed URLs produced by an assembler.
// These are programmer errors and are raised synchronously to the caller;
// they are never converted into status updates.
var ErrInvalidArgument = errors.New("contentloader: invalid argument")

// IsInvalidArgument reports whether err is a contract violation.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
