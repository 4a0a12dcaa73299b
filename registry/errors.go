package registry

import (
	"errors"
	"strconv"
)

var (
	// ErrNotRegistered is matched (errors.Is) by every lookup failure caused by a
	// type that has no canonical default.
	ErrNotRegistered = errors.New("registry: no canonical default")

	// ErrLookupPanic is returned if resolution panics internally.
	ErrLookupPanic = errors.New("registry: panic during Lookup")
)

// UnregisteredError reports a type without a canonical default.
type UnregisteredError struct {
	// Type is the type expression that failed to resolve.
	Type string

	// Reason is a short explanation (may be empty).
	Reason string
}

// Error implements the error interface.
func (e UnregisteredError) Error() string {
	// Example: registry: no canonical default for "net.Conn" (unknown package qualifier "net")
	msg := "registry: no canonical default for " + strconv.Quote(e.Type)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Is makes UnregisteredError match ErrNotRegistered.
func (e UnregisteredError) Is(target error) bool { return target == ErrNotRegistered }

// InvalidTypeError reports a type expression that cannot be parsed.
type InvalidTypeError struct {
	Type string
	Err  error
}

// Error implements the error interface.
func (e InvalidTypeError) Error() string {
	return "registry: invalid type expression " + strconv.Quote(e.Type) + ": " + e.Err.Error()
}

// Unwrap returns the parse error.
func (e InvalidTypeError) Unwrap() error { return e.Err }
