// Package derive implements the derivation of canonical defaults for
// user-defined product types.
//
// Derivation is a pure function from a Definition (the structural description
// of one type, however it was obtained) to an Impl:
//
//	Extract         Definition -> Shape        rejects sum and unknown shapes
//	BuildFields     Shape      -> []FieldInit  one opaque default per field, in order
//	EmitConstraints Shape      -> []Constraint one obligation per field occurrence
//	Assemble        all three  -> Impl         generic parameters carried verbatim
//
// The package never decides whether a field type conforms. Obligations are
// checked later (see package conform) or by the Go compiler on the generated
// code.
package derive
