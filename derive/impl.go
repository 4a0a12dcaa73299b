package derive

import (
	"go/token"
	"strconv"
)

// Ref is an opaque reference to the canonical default of Type. It is
// resolved by whoever renders the Impl, never by this package.
type Ref struct {
	Type string
}

// String implements fmt.Stringer.
func (r Ref) String() string { return "default(" + r.Type + ")" }

// FieldInit is one slot of the generated constructor.
type FieldInit struct {
	// Key is the field name; empty for positional slots.
	Key string
	// Index is the slot position in declaration order.
	Index   int
	Default Ref
	Pos     token.Position
}

// Label returns the key used in diagnostics.
func (f FieldInit) Label() string {
	if f.Key != "" {
		return f.Key
	}
	return strconv.Itoa(f.Index)
}

// Blank reports whether the slot is a blank field, which a keyed literal
// cannot set.
func (f FieldInit) Blank() bool { return f.Key == "_" }

// Ctor is the constructor expression of the default value.
type Ctor struct {
	Kind   ShapeKind
	Fields []FieldInit
}

// Constraint is the obligation "Type must have a canonical default".
type Constraint struct {
	Type string
	// Pos is the position of the field that introduced the obligation.
	Pos token.Position
	// Field is the key of that field.
	Field string
}

// Impl is a generated conformance implementation.
type Impl struct {
	Type   string
	Pos    token.Position
	Params []GenericParam
	// Constraints holds one obligation per field occurrence, in field order.
	Constraints []Constraint
	Value       Ctor
}

// Generic reports whether the implementation has generic parameters.
func (i Impl) Generic() bool { return len(i.Params) > 0 }

// TypeParams returns the names of the type parameters.
func (i Impl) TypeParams() []string {
	var out []string
	for _, p := range i.Params {
		if p.Kind == ParamType {
			out = append(out, p.Name)
		}
	}
	return out
}
