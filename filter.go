package statecore

import "reflect"

// matches reports whether filters are a prefix of args.
// An empty filter list matches every dispatch.
func matches(filters, args []any) bool {
	if len(args) < len(filters) {
		return false
	}
	for i, f := range filters {
		if !sameValue(args[i], f) {
			return false
		}
	}
	return true
}

// sameValue is strict equality without deep comparison. Comparable values
// compare with ==, reference kinds compare by identity, anything else is unequal.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		// Interface-typed fields inside a comparable struct can still hold
		// uncomparable values and panic on ==.
		defer func() { _ = recover() }()
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Func, reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

// funcID returns the code pointer of an observer, used for identity lookups.
func funcID(fn Observer) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
