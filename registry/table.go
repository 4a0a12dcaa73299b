package registry

import (
	"fmt"
	"sort"
)

// DefaultTupleArity bounds the anonymous struct width accepted as a tuple.
const DefaultTupleArity = 12

// Key identifies a catalogue entry.
//
// Predeclared types use their name ("int", "string"). Types from other
// packages use the import path and the type name joined by a dot
// ("time.Duration", "sync/atomic.Pointer").
type Key string

// QualifiedKey builds the Key of a type declared in importPath.
func QualifiedKey(importPath, name string) Key {
	return Key(importPath + "." + name)
}

// Entry describes how a registered type spells its canonical default.
type Entry struct {
	// Literal is the default expression. When empty the default is a composite
	// literal of the type as written at the use site (T{}).
	Literal string

	// Generic marks entries that are instantiated with type arguments.
	Generic bool

	// ArgsConform requires every type argument of a Generic entry to conform.
	ArgsConform bool
}

// Table is a read-only catalogue of canonical defaults.
type Table struct {
	entries    map[Key]Entry
	tupleArity int
}

// New returns a table pre-populated with the built-in catalogue.
func New() *Table {
	t := Empty()
	for k, e := range catalogue {
		t.entries[k] = e
	}
	return t
}

// Empty returns a table with no entries.
func Empty() *Table {
	return &Table{entries: map[Key]Entry{}, tupleArity: DefaultTupleArity}
}

// Provide stores an entry under key and returns the table for chaining.
// It is meant for setup code; lookups never mutate the table.
func (t *Table) Provide(key Key, e Entry) *Table {
	t.entries[key] = e
	return t
}

// WithTupleArity sets the widest anonymous struct treated as a tuple.
func (t *Table) WithTupleArity(n int) *Table {
	if n >= 0 {
		t.tupleArity = n
	}
	return t
}

// TupleArity returns the configured tuple bound.
func (t *Table) TupleArity() int { return t.tupleArity }

// Get returns the entry for key if present.
func (t *Table) Get(key Key) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// MustGet returns the entry or panics with a helpful message.
// Useful in examples/tests where missing keys should fail fast.
func (t *Table) MustGet(key Key) Entry {
	e, ok := t.entries[key]
	if !ok {
		panic(fmt.Errorf("registry: missing key %q", key))
	}
	return e
}

// Keys returns the registered keys in sorted order.
func (t *Table) Keys() []Key {
	out := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
