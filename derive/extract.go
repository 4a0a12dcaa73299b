package derive

import "fmt"

// Extract validates def and returns its Shape.
//
// Struct and tuple definitions are accepted with any number of fields; with
// none they become ShapeUnit. Unions and every other construct fail with an
// UnsupportedShape *Error at the definition's position.
func Extract(def Definition) (Shape, error) {
	if def.Name == "" {
		return Shape{}, unsupported(def, "definition has no name")
	}

	var kind ShapeKind
	switch def.Kind {
	case DeclStruct:
		kind = ShapeNamed
	case DeclTuple:
		kind = ShapePositional
	case DeclUnion:
		return Shape{}, unsupported(def, describe(def, "sum types have no single canonical default"))
	default:
		return Shape{}, unsupported(def, describe(def, "not a product type"))
	}

	fields := make([]Field, 0, len(def.Fields))
	for i, fd := range def.Fields {
		f := Field{Index: i, Type: fd.Type, Pos: fd.Pos, Attr: fd.Attr}
		if kind == ShapeNamed {
			if fd.Name == "" {
				return Shape{}, unsupported(def, fmt.Sprintf("field %d has no name", i))
			}
			f.Name = fd.Name
		}
		if fd.Type == "" {
			return Shape{}, unsupported(def, fmt.Sprintf("field %s has no type", keyOf(fd, i)))
		}
		fields = append(fields, f)
	}

	if len(fields) == 0 {
		kind = ShapeUnit
	}

	return Shape{
		Name:   def.Name,
		Pos:    def.Pos,
		Kind:   kind,
		Params: append([]GenericParam(nil), def.Params...),
		Fields: fields,
	}, nil
}

func describe(def Definition, fallback string) string {
	if def.Detail != "" {
		return def.Detail
	}
	return fallback
}

func keyOf(fd FieldDecl, i int) string {
	if fd.Name != "" {
		return fd.Name
	}
	return fmt.Sprint(i)
}
