package source

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/internal/fsutil"
	"github.com/sghaida/constdefault/registry"
)

// Directive marks a type for derivation.
const Directive = "//constdefault:derive"

// TagKey is the struct tag key recorded as the per-field attribute.
const TagKey = "constdefault"

// Method is the name of the generated method.
const Method = "ConstDefault"

// Options tunes a scan.
type Options struct {
	// Types requests derivation for these type names in addition to the
	// directive-marked ones.
	Types []string

	// Output is the generated file name; it is never scanned.
	Output string
}

// Request is one derivation request and the imports of its declaring file.
type Request struct {
	Def     derive.Definition
	File    string
	Imports map[string]registry.Import
}

// Package is the scan result of one directory.
type Package struct {
	Dir  string
	Name string
	// ImportPath is empty when dir is not inside a module.
	ImportPath string
	Files      []string

	Requests []Request

	// Derived holds the types that implement the capability once the
	// requests are generated. Local types are keyed by name, types of the
	// imported packages of the same module by registry.QualifiedKey. The
	// value reports whether the type is a struct (reachable through a
	// composite literal).
	Derived map[string]bool

	// Errs holds problems that are not attributable to a single request.
	Errs []error
}

// ErrNoGoFiles is returned for a directory without scannable Go files.
var ErrNoGoFiles = errors.New("source: no Go files")

// ScanDir parses the non-test, non-generated Go files of dir.
func ScanDir(dir string, opts Options) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	pkg := &Package{Dir: dir, Derived: map[string]bool{}}
	fset := token.NewFileSet()
	var files []*ast.File

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if opts.Output != "" && name == opts.Output {
			continue
		}

		full := filepath.Join(dir, name)
		f, perr := parser.ParseFile(fset, full, nil, parser.ParseComments)
		if perr != nil {
			return nil, fmt.Errorf("source: %w", perr)
		}
		// avoid feeding generated outputs back into the scan
		if ast.IsGenerated(f) {
			continue
		}
		if pkg.Name == "" {
			pkg.Name = f.Name.Name
		} else if f.Name.Name != pkg.Name {
			return nil, fmt.Errorf("source: %s: found packages %s and %s", dir, pkg.Name, f.Name.Name)
		}
		pkg.Files = append(pkg.Files, full)
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGoFiles, dir)
	}

	s := scanner{fset: fset, pkg: pkg, wanted: map[string]bool{}, found: map[string]bool{}, structs: map[string]bool{}}
	for _, name := range opts.Types {
		if name = strings.TrimSpace(name); name != "" {
			s.wanted[name] = true
		}
	}

	for _, f := range files {
		s.collectTypes(f)
	}
	for _, f := range files {
		s.collectMethods(f)
	}
	for _, f := range files {
		s.collectRequests(f)
	}
	if mod, err := fsutil.FindModule(dir); err == nil {
		if p, err := mod.ImportPath(dir); err == nil {
			pkg.ImportPath = p
		}
		s.collectImported(files, mod)
	}

	for _, name := range opts.Types {
		name = strings.TrimSpace(name)
		if name != "" && !s.found[name] {
			pkg.Errs = append(pkg.Errs, fmt.Errorf("source: type %s not found in %s", name, dir))
		}
	}
	return pkg, nil
}

type scanner struct {
	fset    *token.FileSet
	pkg     *Package
	wanted  map[string]bool
	found   map[string]bool
	structs map[string]bool
	methods map[string]token.Position
}

func (s *scanner) collectTypes(f *ast.File) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if _, ok := ts.Type.(*ast.StructType); ok && !ts.Assign.IsValid() {
				s.structs[ts.Name.Name] = true
			}
		}
	}
}

// collectMethods records hand-written ConstDefault methods.
func (s *scanner) collectMethods(f *ast.File) {
	if s.methods == nil {
		s.methods = map[string]token.Position{}
	}
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 || fd.Name.Name != Method {
			continue
		}
		recv := fd.Recv.List[0].Type
		if _, ptr := recv.(*ast.StarExpr); ptr {
			// T itself does not implement Defaulter[T].
			continue
		}
		name := baseName(recv)
		if name == "" {
			continue
		}
		s.methods[name] = s.fset.Position(fd.Pos())
		s.pkg.Derived[name] = s.structs[name]
	}
}

func (s *scanner) collectRequests(f *ast.File) {
	imports := fileImports(f)
	filename := s.fset.Position(f.Package).Filename

	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			name := ts.Name.Name

			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			marked, opts, err := directive(doc)
			if err != nil {
				s.pkg.Errs = append(s.pkg.Errs, fmt.Errorf("%s: %w", s.fset.Position(ts.Pos()), err))
				continue
			}
			if !marked && !s.wanted[name] {
				continue
			}
			s.found[name] = true

			if pos, ok := s.methods[name]; ok {
				s.pkg.Errs = append(s.pkg.Errs, fmt.Errorf("%s: type %s already declares %s at %s", s.fset.Position(ts.Pos()), name, Method, pos))
				continue
			}

			def := s.definition(ts, opts)
			if def.Kind == derive.DeclStruct || def.Kind == derive.DeclTuple {
				s.pkg.Derived[name] = true
			}
			s.pkg.Requests = append(s.pkg.Requests, Request{Def: def, File: filename, Imports: imports})
		}
	}
}

type directiveOpts struct {
	positional bool
}

// directive reports whether doc carries the derive directive and parses its options.
func directive(doc *ast.CommentGroup) (bool, directiveOpts, error) {
	var opts directiveOpts
	if doc == nil {
		return false, opts, nil
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		for _, opt := range strings.Fields(rest) {
			switch opt {
			case "positional":
				opts.positional = true
			default:
				return false, opts, fmt.Errorf("source: unknown %s option %q", Directive, opt)
			}
		}
		return true, opts, nil
	}
	return false, opts, nil
}

func (s *scanner) definition(ts *ast.TypeSpec, opts directiveOpts) derive.Definition {
	def := derive.Definition{Name: ts.Name.Name, Pos: s.fset.Position(ts.Name.Pos())}

	if ts.TypeParams != nil {
		for _, field := range ts.TypeParams.List {
			bound := types.ExprString(field.Type)
			for _, n := range field.Names {
				def.Params = append(def.Params, derive.GenericParam{Kind: derive.ParamType, Name: n.Name, Bound: bound})
			}
		}
	}

	if ts.Assign.IsValid() {
		def.Kind = derive.DeclOther
		def.Detail = "alias of " + types.ExprString(ts.Type)
		return def
	}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		def.Kind = derive.DeclStruct
		if opts.positional {
			def.Kind = derive.DeclTuple
		}
		def.Fields = s.fields(t)
	case *ast.InterfaceType:
		def.Kind = derive.DeclUnion
		def.Detail = "interface type"
	default:
		def.Kind = derive.DeclOther
		def.Detail = "defined type over " + types.ExprString(t)
	}
	return def
}

func (s *scanner) fields(st *ast.StructType) []derive.FieldDecl {
	if st.Fields == nil {
		return nil
	}
	var out []derive.FieldDecl
	for _, field := range st.Fields.List {
		typ := types.ExprString(field.Type)
		attr := tagAttr(field.Tag)
		if len(field.Names) == 0 {
			out = append(out, derive.FieldDecl{
				Name: baseName(field.Type),
				Type: typ,
				Pos:  s.fset.Position(field.Type.Pos()),
				Attr: attr,
			})
			continue
		}
		for _, n := range field.Names {
			out = append(out, derive.FieldDecl{
				Name: n.Name,
				Type: typ,
				Pos:  s.fset.Position(n.Pos()),
				Attr: attr,
			})
		}
	}
	return out
}

func tagAttr(tag *ast.BasicLit) string {
	if tag == nil {
		return ""
	}
	raw, err := strconv.Unquote(tag.Value)
	if err != nil {
		return ""
	}
	v, _ := reflect.StructTag(raw).Lookup(TagKey)
	return v
}

// baseName returns the type name an embedded field or receiver refers to.
func baseName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return baseName(t.X)
	case *ast.ParenExpr:
		return baseName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return baseName(t.X)
	case *ast.IndexListExpr:
		return baseName(t.X)
	default:
		return ""
	}
}

func fileImports(f *ast.File) map[string]registry.Import {
	out := make(map[string]registry.Import, len(f.Imports))
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		if alias == "_" || alias == "." {
			continue
		}
		ident, entry := registry.ImportFor(alias, path)
		out[ident] = entry
	}
	return out
}
