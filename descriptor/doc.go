// Package descriptor loads hand-authored YAML shape descriptors.
//
// A descriptor stream holds one or more documents:
//
//	package: shapes
//	types:
//	  - name: Color
//	    shape: struct
//	    fields:
//	      - {name: R, type: uint8}
//	  - name: Ref
//	    shape: tuple
//	    params:
//	      - {kind: region, name: a}
//	      - {kind: type, name: T, bound: any}
//	    fields:
//	      - {type: T}
//	  - name: Token
//	    shape: union
//	    variants: [Ident, Number]
//
// Descriptors can express what Go source cannot: region and const generic
// parameters and explicit sum types. Positions of the produced definitions
// come from the YAML nodes.
package descriptor
