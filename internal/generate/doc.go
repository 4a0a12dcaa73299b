// Package generate runs the derivation pipeline over package directories:
// scan, derive, verify, emit and write.
//
// Packages are independent. A failing package never stops the others, and a
// failing type never suppresses the generated code of the other types of its
// package.
package generate
