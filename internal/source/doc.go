// Package source scans a Go package directory for derivation requests.
//
// A request is a type declaration whose doc comment carries the directive
//
//	//constdefault:derive [positional]
//
// or a type named explicitly by the caller. The scanner also records the
// types that already implement ConstDefault by hand, the imports of every
// file and the package name; together they form the lookup environment of
// the requests.
package source
