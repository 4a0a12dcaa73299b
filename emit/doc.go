// Package emit renders derived implementations.
//
// Go renders one source file per package: a value-receiver ConstDefault
// method per implementation plus compile-time assertions that the
// non-generic types satisfy constdefault.Defaulter. Manifest renders the
// same implementations as a language-neutral YAML document.
//
// Both renderers are deterministic: unchanged input yields identical bytes.
package emit
