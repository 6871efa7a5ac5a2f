package audit

import "reflect"

// valuesEqual reports whether two snapshot values are deeply equal. It is
// the single equality authority for the diff engine: a field is only
// reported as changed when this returns false.
//
// Rules:
//   - nil only equals nil (no nil/zero-value coercion)
//   - slices compare by length then element-wise, order-sensitive
//   - maps compare by identical key-set then per-key recursion
//   - everything else compares by type then value
//
// Snapshots come from JSON round-trips or hand-built maps, so they are
// finite and acyclic. Cyclic values are not handled.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}

	switch av.Kind() {
	case reflect.Slice, reflect.Array:
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !valuesEqual(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true

	case reflect.Map:
		if av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.MapKeys() {
			bval := bv.MapIndex(key)
			if !bval.IsValid() {
				return false
			}
			if !valuesEqual(av.MapIndex(key).Interface(), bval.Interface()) {
				return false
			}
		}
		return true

	case reflect.Pointer:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() && bv.IsNil()
		}
		return valuesEqual(av.Elem().Interface(), bv.Elem().Interface())

	default:
		// Primitives, strings, time.Time, and other comparable values.
		if !av.Type().Comparable() {
			return false
		}
		return a == b
	}
}
