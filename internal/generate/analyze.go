package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sghaida/constdefault/conform"
	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/descriptor"
	"github.com/sghaida/constdefault/internal/source"
)

// ErrRuntimePackage is returned for requests inside the runtime package,
// whose generated code would have to import itself.
var ErrRuntimePackage = errors.New("generate: cannot derive inside the runtime package")

// Outcome is the result of one derivation request.
type Outcome struct {
	Request  source.Request
	Impl     derive.Impl
	Resolved conform.Resolved
	Err      error
}

// OK reports whether the request produced an implementation.
func (o Outcome) OK() bool { return o.Err == nil }

// Analysis is everything known about one package before rendering.
type Analysis struct {
	Dir      string
	Package  *source.Package
	Outcomes []Outcome
	// Errs holds package level problems.
	Errs []error
}

// Succeeded returns the resolved implementations in request order.
func (a *Analysis) Succeeded() []conform.Resolved {
	var out []conform.Resolved
	for _, o := range a.Outcomes {
		if o.OK() {
			out = append(out, o.Resolved)
		}
	}
	return out
}

// Failed returns the errors of the failed requests.
func (a *Analysis) Failed() []error {
	var out []error
	for _, o := range a.Outcomes {
		if !o.OK() {
			out = append(out, o.Err)
		}
	}
	return out
}

// Analyze scans dir and derives and verifies every request in it.
//
// A type whose derivation or verification fails no longer counts as derived
// for its siblings; verification repeats until no further type fails.
func (r *Runner) Analyze(ctx context.Context, dir string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, err := source.ScanDir(dir, source.Options{Types: r.types, Output: r.cfg.Output})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("scanned package",
		zap.String("dir", dir),
		zap.String("package", pkg.Name),
		zap.String("import_path", pkg.ImportPath),
		zap.Int("requests", len(pkg.Requests)))

	if pkg.ImportPath != "" && pkg.ImportPath == r.cfg.Runtime().Path && len(pkg.Requests) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRuntimePackage, pkg.ImportPath)
	}

	return r.analyze(ctx, dir, pkg)
}

// AnalyzeDescriptor derives and verifies the types of one descriptor
// document. Struct and tuple definitions count as derived for each other.
func (r *Runner) AnalyzeDescriptor(ctx context.Context, path string, file descriptor.File) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkg := &source.Package{
		Dir:     filepath.Dir(path),
		Name:    file.Package,
		Files:   []string{path},
		Derived: map[string]bool{},
	}
	for _, def := range file.Definitions {
		pkg.Requests = append(pkg.Requests, source.Request{Def: def, File: path})
		if def.Kind == derive.DeclStruct || def.Kind == derive.DeclTuple {
			pkg.Derived[def.Name] = true
		}
	}
	return r.analyze(ctx, path, pkg)
}

func (r *Runner) analyze(ctx context.Context, dir string, pkg *source.Package) (*Analysis, error) {
	a := &Analysis{Dir: dir, Package: pkg, Errs: pkg.Errs}
	derived := make(map[string]bool, len(pkg.Derived))
	for name, literal := range pkg.Derived {
		derived[name] = literal
	}

	a.Outcomes = make([]Outcome, len(pkg.Requests))
	for i, req := range pkg.Requests {
		impl, err := derive.Derive(req.Def)
		a.Outcomes[i] = Outcome{Request: req, Impl: impl, Err: err}
		if err != nil {
			delete(derived, req.Def.Name)
		}
	}

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := false
		for i := range a.Outcomes {
			o := &a.Outcomes[i]
			if o.Err != nil {
				continue
			}
			res, err := conform.Resolve(o.Impl, conform.Env{
				Table:    r.table,
				Derived:  derived,
				Imports:  o.Request.Imports,
				Runtime:  r.cfg.Runtime(),
				Deferred: !r.cfg.Check,
			})
			if err != nil {
				o.Err = err
				delete(derived, o.Impl.Type)
				changed = true
				continue
			}
			o.Resolved = res
		}
		if !changed {
			r.logger.Debug("verified package", zap.String("dir", dir), zap.Int("passes", pass))
			break
		}
	}

	for _, err := range a.Failed() {
		r.logger.Warn("derivation failed", zap.String("dir", dir), zap.Error(err))
	}
	return a, nil
}

func (a *Analysis) String() string {
	return fmt.Sprintf("%s: %d requests, %d failed", a.Dir, len(a.Outcomes), len(a.Failed()))
}
