package derive

import (
	"go/token"
	"strconv"
)

// DeclKind classifies the construct a derivation request names.
type DeclKind int

const (
	// DeclOther is any construct that is not a product or sum type
	// (aliases, basic-typed definitions, maps, funcs, unresolvable input).
	DeclOther DeclKind = iota
	// DeclStruct is a product type with named fields.
	DeclStruct
	// DeclTuple is a product type with positional fields.
	DeclTuple
	// DeclUnion is a sum type: one of several mutually exclusive variants.
	DeclUnion
)

// String implements fmt.Stringer.
func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclTuple:
		return "tuple"
	case DeclUnion:
		return "union"
	default:
		return "other"
	}
}

// Definition is the raw declaration a derivation request names.
type Definition struct {
	Name string
	Pos  token.Position
	Kind DeclKind

	// Detail names the construct in diagnostics ("interface type", "alias").
	Detail string

	Params []GenericParam
	Fields []FieldDecl
}

// FieldDecl is one declared slot of a Definition.
type FieldDecl struct {
	// Name is empty for positional slots.
	Name string
	// Type is the declared type expression as written.
	Type string
	Pos  token.Position
	// Attr is the raw per-field annotation, if any.
	Attr string
}

// ShapeKind distinguishes the three accepted product shapes.
type ShapeKind int

const (
	ShapeNamed ShapeKind = iota + 1
	ShapePositional
	ShapeUnit
)

// String implements fmt.Stringer.
func (k ShapeKind) String() string {
	switch k {
	case ShapeNamed:
		return "named"
	case ShapePositional:
		return "positional"
	case ShapeUnit:
		return "unit"
	default:
		return "ShapeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParamKind is the kind of a generic parameter.
type ParamKind int

const (
	ParamType ParamKind = iota
	ParamRegion
	ParamConst
)

// String implements fmt.Stringer.
func (k ParamKind) String() string {
	switch k {
	case ParamRegion:
		return "region"
	case ParamConst:
		return "const"
	default:
		return "type"
	}
}

// ParseParamKind is the inverse of ParamKind.String. Empty input is ParamType.
func ParseParamKind(s string) (ParamKind, bool) {
	switch s {
	case "", "type":
		return ParamType, true
	case "region", "lifetime":
		return ParamRegion, true
	case "const":
		return ParamConst, true
	default:
		return ParamType, false
	}
}

// GenericParam is one entry of a type's generic parameter list.
type GenericParam struct {
	Kind ParamKind
	Name string
	// Bound is the constraint of a type parameter or the type of a const
	// parameter, as written. It may be empty.
	Bound string
}

// Field is one slot of a Shape.
type Field struct {
	// Name is set for named shapes.
	Name string
	// Index is the zero-based declaration position; set for every shape.
	Index int
	Type  string
	Pos   token.Position
	// Attr is carried from the declaration and never interpreted.
	Attr string
}

// Key returns the identifying key of the field: its name, or its index.
func (f Field) Key() string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.Itoa(f.Index)
}

// Shape is the validated structural description of a product type.
type Shape struct {
	Name   string
	Pos    token.Position
	Kind   ShapeKind
	Params []GenericParam
	Fields []Field
}
