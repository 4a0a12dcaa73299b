package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sghaida/constdefault/registry"
)

// Validate checks the configuration for values the generator cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Output == "" || !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
		errs = append(errs, fmt.Errorf("output must be a non-test .go file name, got %q", c.Output))
	}
	if filepath.Base(c.Output) != c.Output {
		errs = append(errs, fmt.Errorf("output must be a file name without directories, got %q", c.Output))
	}
	if strings.TrimSpace(c.RuntimeImport) == "" {
		errs = append(errs, errors.New("runtime_import is required"))
	}
	if c.TupleArity < 0 {
		errs = append(errs, fmt.Errorf("tuple_arity must not be negative, got %d", c.TupleArity))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	for i, e := range c.Extern {
		if strings.TrimSpace(e.Type) == "" {
			errs = append(errs, fmt.Errorf("extern[%d]: type is required", i))
		}
	}
	return errors.Join(errs...)
}

// Table builds the registry: the built-in catalogue plus the extern entries.
func (c *Config) Table() *registry.Table {
	t := registry.New().WithTupleArity(c.TupleArity)
	for _, e := range c.Extern {
		entry := registry.Entry{Generic: e.Generic, ArgsConform: e.ArgsConform}
		if d := strings.TrimSpace(e.Default); d != "{}" {
			entry.Literal = d
		}
		t.Provide(ExternKey(e.Type), entry)
	}
	return t
}

// Runtime returns the import of the runtime package.
func (c *Config) Runtime() registry.Import {
	return registry.Import{Path: strings.TrimSpace(c.RuntimeImport)}
}

// ExternKey turns "path/to/pkg.Name" into a catalogue key. Names without a
// package are kept as is.
func ExternKey(typ string) registry.Key {
	typ = strings.TrimSpace(typ)
	i := strings.LastIndex(typ, ".")
	if i <= 0 || strings.LastIndex(typ, "/") > i {
		return registry.Key(typ)
	}
	return registry.QualifiedKey(typ[:i], typ[i+1:])
}
