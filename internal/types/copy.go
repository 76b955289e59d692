package types

// IsCopy reports whether values of t are duplicated on use instead of moved.
//
// Primitives, immutable references, function values and raw pointers are
// Copy. Tuples, fixed arrays, optionals and results are Copy when every
// element is. Mutable references, dynamic arrays, strings, maps and named
// aggregates never are; there is no user opt-in. Unknown is treated as Copy
// so that an unresolved type cannot produce a spurious use-after-move.
func IsCopy(t *Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case KindUnknown, KindUnit, KindNever, KindBool, KindChar,
		KindInt, KindUint, KindFloat, KindFn, KindPointer:
		return true
	case KindReference:
		return !t.Mutable
	case KindArray:
		if t.Count == ArrayDynamicLength {
			return false
		}
		return IsCopy(t.Elem)
	case KindOptional:
		return IsCopy(t.Elem)
	case KindTuple, KindResult:
		for _, a := range t.Args {
			if !IsCopy(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
