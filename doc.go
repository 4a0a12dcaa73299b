// Package constdefault provides canonical default values for Go types and a
// generator that derives them for user-defined product types.
//
// The repository is split into small, explicit pieces:
//
//   - constdefault: the capability (Defaulter) and the runtime lookup (Of)
//     referenced by generated code
//   - registry: the static catalogue of canonical defaults for built-in and
//     standard library types
//   - derive: the derivation algorithm (shape extraction, per-field default
//     expressions, constraint emission, assembly)
//   - conform: verification of the obligations an implementation carries
//   - emit: Go source and YAML manifest rendering
//   - descriptor: hand-authored YAML shape descriptors
//   - internal/source, internal/generate: package scanning and the runner
//     that writes one generated file per package
//   - internal/config, internal/watch, internal/fsutil: layered
//     configuration, the source watcher and atomic file writes
//   - cmd/constdefault: the go:generate entry point (generate, describe,
//     list, watch, version)
//
// A type requests derivation with a directive in its doc comment:
//
//	//constdefault:derive
//	type Color struct {
//		R, G, B uint8
//	}
//
// and a go:generate line somewhere in the package:
//
//	//go:generate go run github.com/sghaida/constdefault/cmd/constdefault generate
//
// The generated method builds the value field-by-field from registry literals:
//
//	func (Color) ConstDefault() Color {
//		return Color{
//			R: 0,
//			G: 0,
//			B: 0,
//		}
//	}
//
// Import
//
//	"github.com/sghaida/constdefault"
package constdefault
