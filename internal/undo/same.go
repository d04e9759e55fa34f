package undo

import "reflect"

// Same reports whether two states are the same value.
//
// Pointers, maps, slices and channels are the same only when they refer to
// the same underlying object, so a reducer signals "nothing changed" by
// returning the state it was given. Other comparable values use ==, and
// values that cannot be compared with == (structs or arrays holding slices
// or maps) are the same when they are deeply equal. Funcs are never the
// same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Func:
		return false
	}

	if !va.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return va.Equal(vb)
}
