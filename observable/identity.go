package observable

import (
	"reflect"
	"runtime"
	"strings"
	"unsafe"
)

// identical reports whether a and b are the same value. Comparable values are
// compared with ==; slices, maps and funcs are compared by their pointer.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

// identifiable reports whether target can be matched against itself later.
// Structs and arrays holding uncomparable fields can not.
func identifiable(target any) bool {
	if target == nil {
		return true
	}
	value := reflect.ValueOf(target)
	switch value.Kind() {
	case reflect.Struct, reflect.Array, reflect.Interface:
		return value.Comparable()
	}
	return true
}

// methodID identifies an observer method. A method value (target.method) is
// identified by its code pointer, which every evaluation of target.method
// shares. Any other func is identified by its closure, so closures created
// from one function literal are distinct observers.
func methodID(method Method) uintptr {
	if method == nil {
		return 0
	}
	code := reflect.ValueOf(method).Pointer()
	if fn := runtime.FuncForPC(code); fn != nil && strings.HasSuffix(fn.Name(), "-fm") {
		return code
	}
	return *(*uintptr)(unsafe.Pointer(&method))
}
