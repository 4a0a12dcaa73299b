package derive

// Derive runs one derivation request. On failure no Impl is produced.
func Derive(def Definition) (Impl, error) {
	shape, err := Extract(def)
	if err != nil {
		return Impl{}, err
	}
	return Assemble(shape, BuildFields(shape), EmitConstraints(shape)), nil
}

// Result is the outcome of one request in a batch.
type Result struct {
	Impl Impl
	Err  error
}

// DeriveAll runs independent requests. A failing request never affects the
// others; results keep the order of defs.
func DeriveAll(defs []Definition) []Result {
	out := make([]Result, len(defs))
	for i, def := range defs {
		impl, err := Derive(def)
		out[i] = Result{Impl: impl, Err: err}
	}
	return out
}
