package source

import (
	"errors"
	"fmt"
	"io/fs"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sghaida/constdefault/internal/fsutil"
	"github.com/sghaida/constdefault/registry"
)

// collectImported records the defaulters of the packages the scanned files
// import from the same module.
func (s *scanner) collectImported(files []*ast.File, mod fsutil.Module) {
	paths := map[string]bool{}
	for _, f := range files {
		for _, imp := range f.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err == nil && p != s.pkg.ImportPath {
				paths[p] = true
			}
		}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		dir, ok := mod.Dir(p)
		if !ok {
			continue
		}
		found, err := Defaulters(dir)
		if err != nil {
			s.pkg.Errs = append(s.pkg.Errs, fmt.Errorf("source: imported package %s: %w", p, err))
			continue
		}
		for name, literal := range found {
			s.pkg.Derived[string(registry.QualifiedKey(p, name))] = literal
		}
	}
}

// Defaulters returns the exported types of the package in dir that have a
// canonical default: those with a value receiver ConstDefault method and the
// struct types marked with the directive. The value reports whether the type
// is a struct.
//
// Generated files are read, test files are not.
func Defaulters(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	s := scanner{fset: fset, pkg: &Package{Dir: dir, Derived: map[string]bool{}}, structs: map[string]bool{}}
	var files []*ast.File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if errors.Is(err, fs.ErrNotExist) {
			// removed while that package is regenerated
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	for _, f := range files {
		s.collectTypes(f)
	}
	for _, f := range files {
		s.collectMethods(f)
	}
	for _, f := range files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				// Option errors are reported when that package is generated.
				if marked, _, _ := directive(doc); marked && s.structs[ts.Name.Name] {
					s.pkg.Derived[ts.Name.Name] = true
				}
			}
		}
	}

	out := map[string]bool{}
	for name, literal := range s.pkg.Derived {
		if ast.IsExported(name) {
			out[name] = literal
		}
	}
	return out, nil
}
