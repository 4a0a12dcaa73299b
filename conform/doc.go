// Package conform verifies the obligations a derived implementation carries
// and resolves its per-field default expressions.
//
// Derivation records one obligation per field without proving anything. This
// package is the second phase: every obligation is looked up in the registry
// with the implementation's scope (its type parameters, the derived types of
// the package and the imports of the declaring file). Obligations on the
// implementation's own type parameters are deferred to instantiation.
package conform
