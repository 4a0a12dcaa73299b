package constdefault

import (
	"fmt"
	"reflect"
)

// Defaulter is implemented by every type with a canonical default value.
//
// Generated code implements it with a value receiver so the zero value of T
// can be used to reach the method.
type Defaulter[T any] interface {
	ConstDefault() T
}

// Of returns the canonical default of T.
//
// Types implementing Defaulter[T] return their derived default; every other
// type returns its zero value, which is the canonical default of all
// catalogue types.
func Of[T any]() T {
	var zero T
	if d, ok := any(zero).(Defaulter[T]); ok {
		return d.ConstDefault()
	}
	return zero
}

// Has reports whether T carries a derived default.
func Has[T any]() bool {
	var zero T
	_, ok := any(zero).(Defaulter[T])
	return ok
}

// Derived returns the derived default of T. Unlike Of it only compiles for
// types implementing Defaulter[T].
func Derived[T Defaulter[T]]() T {
	var zero T
	return zero.ConstDefault()
}

// Filled returns the array A with every element set to v. Generated code
// uses it for arrays whose length is not written as a small literal.
//
// It panics when A is not an array of T.
func Filled[A any, T any](v T) A {
	var a A
	rv := reflect.ValueOf(&a).Elem()
	if rv.Kind() != reflect.Array || rv.Type().Elem() != reflect.TypeFor[T]() {
		panic(fmt.Sprintf("constdefault: Filled: %s is not an array of %s", rv.Type(), reflect.TypeFor[T]()))
	}
	ev := reflect.ValueOf(&v).Elem()
	for i := 0; i < rv.Len(); i++ {
		rv.Index(i).Set(ev)
	}
	return a
}
