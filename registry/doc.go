// Package registry holds the catalogue of canonical default values.
//
// A Table maps a type identity (a predeclared name such as "int", or an
// import-path qualified name such as "sync/atomic.Int64") to the Go
// expression that spells its canonical default. Composite types are resolved
// structurally:
//
//   - [N]T conforms when T conforms
//   - anonymous structs conform up to a bounded arity when every field conforms
//   - pointers, slices, maps, channels, funcs and interfaces default to nil
//   - derived types resolve to T{}.ConstDefault()
//   - type parameters resolve to constdefault.Of[T]() and are satisfied by deferral
//
// The table is populated once and is read-only afterwards; Provide exists for
// setup code (configured extern types) and tests.
package registry
