package derive

import (
	"errors"
	"go/token"
	"strings"
)

// Kind classifies a derivation failure.
type Kind int

const (
	// UnsupportedShape: the definition is not a product type.
	UnsupportedShape Kind = iota + 1
	// UnsatisfiedFieldConformance: a field type has no canonical default.
	UnsatisfiedFieldConformance
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case UnsupportedShape:
		return "unsupported shape"
	case UnsatisfiedFieldConformance:
		return "unsatisfied field conformance"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupportedShape is matched (errors.Is) by every UnsupportedShape Error.
	ErrUnsupportedShape = errors.New("derive: unsupported shape")

	// ErrUnsatisfiedFieldConformance is matched (errors.Is) by every
	// UnsatisfiedFieldConformance Error.
	ErrUnsatisfiedFieldConformance = errors.New("derive: unsatisfied field conformance")
)

// Error is a derivation diagnostic attributed to a source position.
type Error struct {
	Kind Kind
	Pos  token.Position

	// Type is the name of the type derivation was requested for.
	Type string

	// Field is the offending field key (conformance errors only).
	Field string

	// Msg is the detail.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Example: colors.go:9:6: derive Color: unsupported shape: interface type
	var b strings.Builder
	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString("derive ")
	b.WriteString(e.Type)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the sentinel of the error's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnsupportedShape:
		return e.Kind == UnsupportedShape
	case ErrUnsatisfiedFieldConformance:
		return e.Kind == UnsatisfiedFieldConformance
	}
	return false
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func unsupported(def Definition, msg string) *Error {
	return &Error{Kind: UnsupportedShape, Pos: def.Pos, Type: def.Name, Msg: msg}
}
