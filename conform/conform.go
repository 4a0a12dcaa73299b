package conform

import (
	"errors"
	"go/token"
	"sort"

	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/registry"
)

// Env is the lookup environment shared by the implementations of one file.
type Env struct {
	// Table is the registry; nil means registry.New().
	Table *registry.Table

	// Derived holds the types of the package that implement the capability,
	// keyed as registry.Scope.Derived.
	Derived map[string]bool

	// Imports maps the identifiers of the declaring file to their imports.
	Imports map[string]registry.Import

	// Runtime is the import of the runtime package; zero means registry.Runtime.
	Runtime registry.Import

	// Deferred leaves unresolved obligations to the Go compiler instead of
	// failing: such fields are spelled as a call to the runtime Derived.
	Deferred bool
}

// Resolved is an implementation together with its field defaults.
type Resolved struct {
	Impl derive.Impl

	// Fields holds the default of every constructor slot, in slot order.
	Fields []registry.Default

	// Imports is the union of the field imports, sorted by path.
	Imports []registry.Import
}

// Check verifies every obligation of impl.
func Check(impl derive.Impl, env Env) error {
	_, err := Resolve(impl, env)
	return err
}

// Resolve verifies impl and spells the default of each constructor slot.
//
// Every failing obligation becomes an UnsatisfiedFieldConformance *derive.Error
// at the field that introduced it; all failures are joined.
func Resolve(impl derive.Impl, env Env) (Resolved, error) {
	table := env.Table
	if table == nil {
		table = registry.New()
	}
	scope := env.scope(impl)

	cache := make(map[string]lookup, len(impl.Constraints))
	resolve := func(typ string) lookup {
		if l, ok := cache[typ]; ok {
			return l
		}
		def, err := table.Lookup(typ, scope)
		if err != nil && env.Deferred && errors.Is(err, registry.ErrNotRegistered) {
			if d, derr := registry.Deferred(typ, scope); derr == nil {
				def, err = d, nil
			}
		}
		l := lookup{def: def, err: err}
		cache[typ] = l
		return l
	}

	var errs []error
	for _, c := range impl.Constraints {
		if l := resolve(c.Type); l.err != nil {
			errs = append(errs, unsatisfied(impl, c.Pos, c.Field, l.err))
		}
	}
	if len(errs) > 0 {
		return Resolved{}, errors.Join(errs...)
	}

	out := Resolved{Impl: impl, Fields: make([]registry.Default, 0, len(impl.Value.Fields))}
	seen := map[registry.Import]struct{}{}
	for _, f := range impl.Value.Fields {
		l := resolve(f.Default.Type)
		if l.err != nil {
			// A slot without a matching obligation still has to conform.
			errs = append(errs, unsatisfied(impl, f.Pos, f.Label(), l.err))
			continue
		}
		out.Fields = append(out.Fields, l.def)
		if f.Blank() && impl.Value.Kind == derive.ShapeNamed {
			// not rendered, so its imports would be unused
			continue
		}
		for _, imp := range l.def.Imports {
			if _, ok := seen[imp]; !ok {
				seen[imp] = struct{}{}
				out.Imports = append(out.Imports, imp)
			}
		}
	}
	if len(errs) > 0 {
		return Resolved{}, errors.Join(errs...)
	}

	sort.Slice(out.Imports, func(i, j int) bool {
		if out.Imports[i].Path == out.Imports[j].Path {
			return out.Imports[i].Name < out.Imports[j].Name
		}
		return out.Imports[i].Path < out.Imports[j].Path
	})
	return out, nil
}

type lookup struct {
	def registry.Default
	err error
}

func (env Env) scope(impl derive.Impl) registry.Scope {
	params := map[string]bool{}
	for _, name := range impl.TypeParams() {
		params[name] = true
	}
	return registry.Scope{
		TypeParams: params,
		Derived:    env.Derived,
		Imports:    env.Imports,
		Runtime:    env.Runtime,
	}
}

func unsatisfied(impl derive.Impl, pos token.Position, field string, err error) *derive.Error {
	return &derive.Error{
		Kind:  derive.UnsatisfiedFieldConformance,
		Pos:   pos,
		Type:  impl.Type,
		Field: field,
		Err:   err,
	}
}
