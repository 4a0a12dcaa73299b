package derive

// EmitConstraints mirrors every field type into an obligation, in field
// order. Repeated types are kept; identical obligations are idempotent.
func EmitConstraints(s Shape) []Constraint {
	if len(s.Fields) == 0 {
		return nil
	}
	out := make([]Constraint, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, Constraint{Type: f.Type, Pos: f.Pos, Field: f.Key()})
	}
	return out
}
