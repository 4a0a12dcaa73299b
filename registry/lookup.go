package registry

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strconv"
	"strings"
)

// Import is one import a default expression needs.
type Import struct {
	// Name is the explicit alias, empty when the package name is used as is.
	Name string
	// Path is the import path.
	Path string
}

// Ident returns the identifier the generated code uses for the package.
func (i Import) Ident() string {
	if i.Name != "" {
		return i.Name
	}
	return PackageName(i.Path)
}

// PackageName guesses the package name of an import path: the last element,
// skipping major version suffixes ("/v2") and dropping ".vN" / "go-" decorations.
func PackageName(importPath string) string {
	importPath = strings.TrimSpace(importPath)
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Runtime is the default import of the package providing Of.
var Runtime = Import{Path: "github.com/sghaida/constdefault"}

// Default is a resolved canonical default.
type Default struct {
	// Expr is the Go expression of the default value.
	Expr string
	// Imports lists the imports Expr references, sorted by path.
	Imports []Import
}

// Scope is the lookup context of one generated implementation.
type Scope struct {
	// TypeParams holds the implementation's own type parameter names.
	// Obligations on them are deferred to instantiation.
	TypeParams map[string]bool

	// Derived holds the types that implement the capability, keyed by name
	// for package-local types and by QualifiedKey otherwise. The value
	// reports whether a composite literal of the type is valid (struct
	// types); other defaulters resolve through the runtime Of.
	Derived map[string]bool

	// Imports maps the identifier used in source to its import.
	Imports map[string]Import

	// Runtime is the import of the package providing Of.
	Runtime Import
}

// Lookup resolves the canonical default of the type expression typ.
//
// It fails with an error matching ErrNotRegistered when the type (or one of
// the types it is built from) does not conform. Lookup never panics.
func (t *Table) Lookup(typ string, scope Scope) (def Default, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			def = Default{}
			err = fmt.Errorf("%w: %v", ErrLookupPanic, rec)
		}
	}()

	expr, perr := parser.ParseExpr(typ)
	if perr != nil {
		return Default{}, InvalidTypeError{Type: typ, Err: perr}
	}

	r := resolver{table: t, scope: scope, imports: map[Import]struct{}{}}
	v, err := r.resolve(expr)
	if err != nil {
		return Default{}, err
	}
	return Default{Expr: v.text, Imports: r.sortedImports()}, nil
}

// Deferred spells the default of typ as a call to the runtime Derived, which
// only compiles for types implementing the capability. It performs no
// conformance check of its own; the package qualifiers of typ must still be
// known to scope.
func Deferred(typ string, scope Scope) (Default, error) {
	expr, err := parser.ParseExpr(typ)
	if err != nil {
		return Default{}, InvalidTypeError{Type: typ, Err: err}
	}
	r := resolver{scope: scope, imports: map[Import]struct{}{}}
	if err := r.collect(expr); err != nil {
		return Default{}, err
	}
	text := r.runtimeCall("Derived", types.ExprString(expr))
	return Default{Expr: text, Imports: r.sortedImports()}, nil
}

// Conforms reports whether typ has a canonical default in scope.
func (t *Table) Conforms(typ string, scope Scope) bool {
	_, err := t.Lookup(typ, scope)
	return err == nil
}

type resolver struct {
	table   *Table
	scope   Scope
	imports map[Import]struct{}
}

// value is a resolved default expression.
type value struct {
	text string
	// zero reports that text spells the zero value of its type, so arrays
	// and anonymous structs of it stay T{}.
	zero bool
}

var zeroLiterals = map[string]bool{"0": true, "0.0": true, "false": true, `""`: true, "nil": true}

// maxSpelledLen is the longest array whose elements are written out; longer
// ones are filled by the runtime.
const maxSpelledLen = 8

func (r *resolver) resolve(expr ast.Expr) (value, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return r.resolve(e.X)

	case *ast.Ident:
		return r.resolveIdent(e)

	case *ast.SelectorExpr:
		return r.resolveSelector(e)

	case *ast.IndexExpr:
		return r.resolveInstance(e, e.X, []ast.Expr{e.Index})

	case *ast.IndexListExpr:
		return r.resolveInstance(e, e.X, e.Indices)

	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return value{text: "nil", zero: true}, nil

	case *ast.ArrayType:
		if e.Len == nil {
			return value{text: "nil", zero: true}, nil
		}
		if _, ok := e.Len.(*ast.Ellipsis); ok {
			return value{}, r.unregistered(e, "array length must be explicit")
		}
		return r.resolveArray(e)

	case *ast.StructType:
		return r.resolveStruct(e)

	default:
		return value{}, r.unregistered(expr, "not a type expression")
	}
}

// nested returns a resolver whose imports are kept apart until merged.
func (r *resolver) nested() *resolver {
	return &resolver{table: r.table, scope: r.scope, imports: map[Import]struct{}{}}
}

func (r *resolver) merge(n *resolver) {
	for imp := range n.imports {
		r.imports[imp] = struct{}{}
	}
}

// check resolves a nested type for conformance only; its expression and
// imports are not part of the outer default.
func (r *resolver) check(expr ast.Expr) error {
	_, err := r.nested().resolve(expr)
	return err
}

func (r *resolver) resolveIdent(id *ast.Ident) (value, error) {
	name := id.Name
	if r.scope.TypeParams[name] {
		return value{text: r.viaRuntime(name)}, nil
	}
	if literal, ok := r.scope.Derived[name]; ok {
		if literal {
			return value{text: name + "{}.ConstDefault()"}, nil
		}
		return value{text: r.viaRuntime(name)}, nil
	}
	entry, ok := r.table.entries[Key(name)]
	if !ok {
		return value{}, r.unregistered(id, "")
	}
	if entry.Generic {
		return value{}, r.unregistered(id, "missing type arguments")
	}
	return r.entryExpr(entry, id)
}

func (r *resolver) resolveSelector(sel *ast.SelectorExpr) (value, error) {
	key, err := r.qualifiedKey(sel)
	if err != nil {
		return value{}, err
	}
	if literal, ok := r.scope.Derived[string(key)]; ok {
		return r.derived(sel, literal)
	}
	entry, ok := r.table.entries[key]
	if !ok {
		return value{}, r.unregistered(sel, "")
	}
	if entry.Generic {
		return value{}, r.unregistered(sel, "missing type arguments")
	}
	return r.entryExpr(entry, sel)
}

// resolveInstance handles generic instantiations such as atomic.Pointer[T] or Box[int].
func (r *resolver) resolveInstance(expr, base ast.Expr, args []ast.Expr) (value, error) {
	var (
		entry   Entry
		derived bool
		literal bool
	)
	switch b := base.(type) {
	case *ast.Ident:
		if lit, ok := r.scope.Derived[b.Name]; ok {
			derived, literal = true, lit
			break
		}
		e, ok := r.table.entries[Key(b.Name)]
		if !ok {
			return value{}, r.unregistered(expr, "")
		}
		entry = e
	case *ast.SelectorExpr:
		key, err := r.qualifiedKey(b)
		if err != nil {
			return value{}, err
		}
		if lit, ok := r.scope.Derived[string(key)]; ok {
			derived, literal = true, lit
			break
		}
		e, ok := r.table.entries[key]
		if !ok {
			return value{}, r.unregistered(expr, "")
		}
		entry = e
	default:
		return value{}, r.unregistered(expr, "not a type expression")
	}

	if !derived && !entry.Generic {
		return value{}, r.unregistered(expr, "type is not generic")
	}

	if derived || entry.ArgsConform {
		for _, arg := range args {
			if err := r.check(arg); err != nil {
				return value{}, err
			}
		}
	}

	if derived {
		return r.derived(expr, literal)
	}
	return r.entryExpr(entry, expr)
}

// derived spells the default of a type implementing the capability.
func (r *resolver) derived(typ ast.Expr, literal bool) (value, error) {
	if literal {
		text, err := r.composite(typ, ".ConstDefault()")
		return value{text: text}, err
	}
	if err := r.collect(typ); err != nil {
		return value{}, err
	}
	return value{text: r.viaRuntime(types.ExprString(typ))}, nil
}

// resolveArray spells [N]T{} unless the element default is not the zero
// value, in which case every element is set to it.
func (r *resolver) resolveArray(arr *ast.ArrayType) (value, error) {
	elem := r.nested()
	ev, err := elem.resolve(arr.Elt)
	if err != nil {
		return value{}, err
	}
	n, literalLen := arrayLen(arr.Len)
	if ev.zero || (literalLen && n == 0) {
		text, err := r.composite(arr)
		return value{text: text, zero: true}, err
	}

	typ := types.ExprString(arr)
	if err := r.collect(arr); err != nil {
		return value{}, err
	}
	r.merge(elem)
	if literalLen && n <= maxSpelledLen {
		elems := make([]string, n)
		for i := range elems {
			elems[i] = ev.text
		}
		return value{text: typ + "{" + strings.Join(elems, ", ") + "}"}, nil
	}
	call := r.runtimeCall("Filled", typ+", "+types.ExprString(arr.Elt))
	return value{text: strings.TrimSuffix(call, ")") + ev.text + ")"}, nil
}

// arrayLen returns the length of an array type written as an integer literal.
func arrayLen(expr ast.Expr) (int64, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, false
	}
	n, err := strconv.ParseInt(lit.Value, 0, 64)
	return n, err == nil
}

// resolveStruct spells an anonymous struct as T{} or, when a field default
// is not the zero value, as a keyed literal of the field defaults.
func (r *resolver) resolveStruct(st *ast.StructType) (value, error) {
	arity := 0
	if st.Fields != nil {
		for _, f := range st.Fields.List {
			n := len(f.Names)
			if n == 0 {
				n = 1
			}
			arity += n
		}
	}
	if arity > r.table.tupleArity {
		return value{}, r.unregistered(st, fmt.Sprintf("anonymous struct arity %d exceeds %d", arity, r.table.tupleArity))
	}

	fields := r.nested()
	var keyed []string
	if st.Fields != nil {
		for _, f := range st.Fields.List {
			fv, err := fields.resolve(f.Type)
			if err != nil {
				return value{}, err
			}
			if fv.zero {
				continue
			}
			names := make([]string, 0, len(f.Names))
			for _, id := range f.Names {
				names = append(names, id.Name)
			}
			if len(f.Names) == 0 {
				names = append(names, embeddedName(f.Type))
			}
			for _, name := range names {
				// blank fields cannot be keyed
				if name != "_" {
					keyed = append(keyed, name+": "+fv.text)
				}
			}
		}
	}

	text, err := r.composite(st)
	if err != nil || len(keyed) == 0 {
		return value{text: text, zero: true}, err
	}
	r.merge(fields)
	return value{text: strings.TrimSuffix(text, "}") + strings.Join(keyed, ", ") + "}"}, nil
}

// embeddedName is the field name of an embedded field of type typ.
func embeddedName(typ ast.Expr) string {
	switch t := typ.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return "_"
}

func (r *resolver) entryExpr(entry Entry, typ ast.Expr) (value, error) {
	if entry.Literal == "" {
		text, err := r.composite(typ)
		return value{text: text, zero: true}, err
	}
	if err := r.collectLiteral(entry.Literal, typ); err != nil {
		return value{}, err
	}
	return value{text: entry.Literal, zero: zeroLiterals[entry.Literal]}, nil
}

// collectLiteral records the imports of the package qualifiers a provided
// literal references. A qualifier naming the package that declares typ
// resolves to that package even when the source imports it under an alias.
func (r *resolver) collectLiteral(literal string, typ ast.Expr) error {
	expr, err := parser.ParseExpr(literal)
	if err != nil {
		return r.unregistered(typ, "invalid literal "+strconv.Quote(literal))
	}
	home, hasHome := r.home(typ)
	ast.Inspect(expr, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		switch imp, known := r.scope.Imports[pkg.Name]; {
		case hasHome && pkg.Name == PackageName(home.Path) && home.Ident() != pkg.Name:
			r.imports[Import{Path: home.Path}] = struct{}{}
		case known:
			r.imports[imp] = struct{}{}
		default:
			err = r.unregistered(typ, "unknown package qualifier "+pkg.Name+" in literal")
		}
		return false
	})
	return err
}

// home returns the import of the package that declares typ.
func (r *resolver) home(typ ast.Expr) (Import, bool) {
	switch t := typ.(type) {
	case *ast.IndexExpr:
		typ = t.X
	case *ast.IndexListExpr:
		typ = t.X
	}
	sel, ok := typ.(*ast.SelectorExpr)
	if !ok {
		return Import{}, false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return Import{}, false
	}
	imp, ok := r.scope.Imports[pkg.Name]
	return imp, ok
}

// composite spells T{} (plus an optional suffix) and records the imports T references.
func (r *resolver) composite(typ ast.Expr, suffix ...string) (string, error) {
	if err := r.collect(typ); err != nil {
		return "", err
	}
	return types.ExprString(typ) + "{}" + strings.Join(suffix, ""), nil
}

func (r *resolver) viaRuntime(typ string) string {
	return r.runtimeCall("Of", typ)
}

func (r *resolver) runtimeCall(fn, typ string) string {
	rt := r.scope.Runtime
	if rt.Path == "" {
		rt = Runtime
	}
	r.imports[rt] = struct{}{}
	return rt.Ident() + "." + fn + "[" + typ + "]()"
}

func (r *resolver) qualifiedKey(sel *ast.SelectorExpr) (Key, error) {
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", r.unregistered(sel, "not a type expression")
	}
	imp, ok := r.scope.Imports[pkg.Name]
	if !ok {
		return "", r.unregistered(sel, "unknown package qualifier "+pkg.Name)
	}
	return QualifiedKey(imp.Path, sel.Sel.Name), nil
}

// collect records the import of every package qualifier referenced in expr.
func (r *resolver) collect(expr ast.Expr) error {
	var err error
	ast.Inspect(expr, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		imp, ok := r.scope.Imports[pkg.Name]
		if !ok {
			err = r.unregistered(sel, "unknown package qualifier "+pkg.Name)
			return false
		}
		r.imports[imp] = struct{}{}
		return false
	})
	return err
}

func (r *resolver) sortedImports() []Import {
	if len(r.imports) == 0 {
		return nil
	}
	out := make([]Import, 0, len(r.imports))
	for imp := range r.imports {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (r *resolver) unregistered(expr ast.Expr, reason string) error {
	return UnregisteredError{Type: types.ExprString(expr), Reason: reason}
}

// ImportFor builds the Scope entry of an import spec as written in source.
func ImportFor(alias, importPath string) (string, Import) {
	if alias != "" {
		return alias, Import{Name: alias, Path: importPath}
	}
	return PackageName(importPath), Import{Path: importPath}
}
