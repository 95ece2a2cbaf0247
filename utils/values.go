package utils

// Equal reports strict equality between two dynamic values. Strings,
// booleans and numbers compare by value (integer widths and float64 compare
// across types); everything else is unequal. Nil equals only nil.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		return aok && bok && af == bf
	}
}

// Contains reports whether collection holds a value equal to v. It accepts
// the concrete slice types that reach the filter layer from callers and
// decoded JSON; a non-collection yields false.
func Contains(collection any, v any) bool {
	switch c := collection.(type) {
	case []string:
		for _, item := range c {
			if Equal(item, v) {
				return true
			}
		}
	case []any:
		for _, item := range c {
			if Equal(item, v) {
				return true
			}
		}
	case []int:
		for _, item := range c {
			if Equal(item, v) {
				return true
			}
		}
	case []float64:
		for _, item := range c {
			if Equal(item, v) {
				return true
			}
		}
	}
	return false
}

// IsCollection reports whether v is one of the slice types Contains
// understands.
func IsCollection(v any) bool {
	switch v.(type) {
	case []string, []any, []int, []float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
