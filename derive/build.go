package derive

// BuildFields returns one constructor slot per field, in declaration order.
// Each slot refers to the canonical default of its field type without
// resolving it.
func BuildFields(s Shape) []FieldInit {
	if len(s.Fields) == 0 {
		return nil
	}
	out := make([]FieldInit, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, FieldInit{
			Key:     f.Name,
			Index:   f.Index,
			Default: Ref{Type: f.Type},
			Pos:     f.Pos,
		})
	}
	return out
}

// Assemble joins the shape identity, its constructor slots and obligations.
func Assemble(s Shape, fields []FieldInit, constraints []Constraint) Impl {
	return Impl{
		Type:        s.Name,
		Pos:         s.Pos,
		Params:      append([]GenericParam(nil), s.Params...),
		Constraints: constraints,
		Value:       Ctor{Kind: s.Kind, Fields: fields},
	}
}
