package ginvariant

import (
	"fmt"
	"reflect"
)

// NilDescription is what [Describe] renders for an absent value.
const NilDescription = "<nil>"

// Describe renders v for a diagnostic message without ever panicking.
//
// A nil value (including a typed nil pointer, map, slice, func, chan, or interface)
// renders as [NilDescription].
// A value implementing [fmt.Stringer] renders through its String method,
// and otherwise an error renders through its Error method;
// if either method panics, the panic is recovered and the type name is used instead.
// Values of the predeclared boolean, numeric, and string types render as their value.
// Any other value renders as its type name.
func Describe(v any) string {
	if isNil(v) {
		return NilDescription
	}

	switch x := v.(type) {
	case fmt.Stringer:
		if out, ok := safeRender(x.String); ok {
			return out
		}
	case error:
		if out, ok := safeRender(x.Error); ok {
			return out
		}
	}

	t := reflect.TypeOf(v)
	if isPredeclaredBasic(t) {
		return fmt.Sprint(v)
	}
	return t.String()
}

func safeRender(render func() string) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = "", false
		}
	}()
	return render(), true
}

// isPredeclaredBasic reports whether t is one of Go's predeclared
// boolean, numeric, or string types, as opposed to a named type defined on one.
func isPredeclaredBasic(t reflect.Type) bool {
	if t.PkgPath() != "" {
		return false
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
