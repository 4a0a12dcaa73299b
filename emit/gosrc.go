package emit

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/sghaida/constdefault/conform"
	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/registry"
)

// Header is the first line of every generated Go file.
const Header = "// Code generated by constdefault; DO NOT EDIT."

// Options tunes Go rendering.
type Options struct {
	// Filename is reported by the formatter; defaults to "constdefault_gen.go".
	Filename string

	// Runtime is the import of the package providing Defaulter; zero means
	// registry.Runtime.
	Runtime registry.Import

	// NoAssert drops the compile-time Defaulter assertions.
	NoAssert bool
}

// Go renders the implementations of package pkg as one formatted source file.
// Units are emitted in the given order.
func Go(pkg string, units []conform.Resolved, opts Options) ([]byte, error) {
	if strings.TrimSpace(pkg) == "" {
		return nil, errors.New("emit: package name is empty")
	}
	if len(units) == 0 {
		return nil, errors.New("emit: no implementations to render")
	}

	rt := opts.Runtime
	if rt.Path == "" {
		rt = registry.Runtime
	}
	filename := opts.Filename
	if filename == "" {
		filename = "constdefault_gen.go"
	}

	data := fileData{Header: Header, Package: pkg, Runtime: rt.Ident()}
	var imps []registry.Import
	for _, u := range units {
		td, err := typeDataFor(u)
		if err != nil {
			return nil, err
		}
		data.Types = append(data.Types, td)
		imps = append(imps, u.Imports...)
		if !opts.NoAssert && !u.Impl.Generic() {
			data.Asserts = append(data.Asserts, u.Impl.Type)
		}
	}
	if len(data.Asserts) > 0 {
		imps = append(imps, rt)
	}

	merged, err := mergeImports(imps)
	if err != nil {
		return nil, err
	}
	for i, imp := range merged {
		data.Imports = append(data.Imports, importLine{
			Import: imp,
			Break:  i > 0 && importGroup(merged[i-1].Path) != importGroup(imp.Path),
		})
	}

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("emit: execute template: %w", err)
	}

	out, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("emit: format %s: %w", filename, err)
	}
	return out, nil
}

type fileData struct {
	Header  string
	Package string
	Runtime string
	Imports []importLine
	Types   []typeData
	Asserts []string
}

type importLine struct {
	registry.Import
	// Break starts a new import group.
	Break bool
}

type typeData struct {
	Name        string
	Recv        string
	Literal     string
	Obligations []string
	// Advisory is set when an obligation falls on a type parameter, which
	// the method signature cannot enforce.
	Advisory bool
}

func typeDataFor(u conform.Resolved) (typeData, error) {
	impl := u.Impl
	if len(u.Fields) != len(impl.Value.Fields) {
		return typeData{}, fmt.Errorf("emit: %s: %d field defaults for %d fields", impl.Type, len(u.Fields), len(impl.Value.Fields))
	}

	recv, err := receiver(impl)
	if err != nil {
		return typeData{}, err
	}

	td := typeData{Name: impl.Type, Recv: recv, Literal: literal(recv, impl.Value, u.Fields)}
	params := map[string]bool{}
	for _, p := range impl.TypeParams() {
		params[p] = true
	}
	for _, c := range impl.Constraints {
		line := c.Field + " " + c.Type
		if params[c.Type] {
			line += " (at instantiation)"
			td.Advisory = true
		}
		td.Obligations = append(td.Obligations, line)
	}
	return td, nil
}

// receiver spells the receiver type: the type name followed by its type
// parameter names.
func receiver(impl derive.Impl) (string, error) {
	if !impl.Generic() {
		return impl.Type, nil
	}
	names := make([]string, 0, len(impl.Params))
	for _, p := range impl.Params {
		if p.Kind != derive.ParamType {
			return "", ParamError{Type: impl.Type, Param: p.Name, Kind: p.Kind.String()}
		}
		names = append(names, p.Name)
	}
	return impl.Type + "[" + strings.Join(names, ", ") + "]", nil
}

// literal spells the constructor. Blank fields are left out of keyed
// literals and keep their zero value.
func literal(recv string, ctor derive.Ctor, defaults []registry.Default) string {
	if ctor.Kind == derive.ShapeUnit {
		return recv + "{}"
	}
	var b strings.Builder
	for i, f := range ctor.Fields {
		if ctor.Kind == derive.ShapeNamed {
			if f.Blank() {
				continue
			}
			b.WriteString("\t\t")
			b.WriteString(f.Key)
			b.WriteString(": ")
		} else {
			b.WriteString("\t\t")
		}
		b.WriteString(defaults[i].Expr)
		b.WriteString(",\n")
	}
	if b.Len() == 0 {
		return recv + "{}"
	}
	return recv + "{\n" + b.String() + "\t}"
}

// mergeImports dedupes imports and rejects two paths behind one identifier.
func mergeImports(in []registry.Import) ([]registry.Import, error) {
	byIdent := map[string]string{}
	seen := map[registry.Import]struct{}{}
	var out []registry.Import
	for _, imp := range in {
		if _, ok := seen[imp]; ok {
			continue
		}
		seen[imp] = struct{}{}
		ident := imp.Ident()
		if prev, ok := byIdent[ident]; ok && prev != imp.Path {
			return nil, ImportConflictError{Ident: ident, Paths: [2]string{prev, imp.Path}}
		}
		byIdent[ident] = imp.Path
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		gi, gj := importGroup(out[i].Path), importGroup(out[j].Path)
		if gi != gj {
			return gi < gj
		}
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// importGroup puts the standard library (no dot in the first path element)
// before everything else, the way goimports groups them.
func importGroup(importPath string) int {
	first, _, _ := strings.Cut(importPath, "/")
	if strings.Contains(first, ".") {
		return 1
	}
	return 0
}

var goTemplate = template.Must(
	template.New("constdefault").Parse(`{{.Header}}

package {{.Package}}
{{if eq (len .Imports) 1}}{{with index .Imports 0}}
import {{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{end}}{{else if .Imports}}
import (
{{- range .Imports}}
{{- if .Break}}
{{end}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}
{{- range .Types}}
// ConstDefault returns the canonical default of {{.Name}}.
{{- if .Obligations}}
//
// Field obligations:
{{- range .Obligations}}
//   - {{.}}
{{- end}}
{{- if .Advisory}}
//
// Obligations at instantiation are not enforced: a type argument without a
// canonical default contributes its zero value.
{{- end}}
{{- end}}
func ({{.Recv}}) ConstDefault() {{.Recv}} {
	return {{.Literal}}
}
{{end}}
{{- if .Asserts}}
var (
{{- range .Asserts}}
	_ {{$.Runtime}}.Defaulter[{{.}}] = {{.}}{}
{{- end}}
)
{{- end}}
`),
)
