package pipeline

import (
	"fmt"
	"strings"
)

// toFloat64 coerces the numeric Go kinds a pipeline source or map
// handler is likely to produce into a float64 for Sum/compare. It
// deliberately does not accept strings-that-look-numeric; callers
// wanting that should map() the conversion explicitly.
func toFloat64(item Item) (float64, bool) {
	switch v := item.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// compare orders two items using natural numeric or lexical ordering,
// the Go stand-in for Python's default `<` across Min/Max. Items of
// incomparable kinds panic, since Min/Max on a heterogeneous or
// non-orderable sequence has no sensible answer for either language.
func compare(a, b Item) int {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return strings.Compare(as, bs)
		}
	}
	panic(fmt.Sprintf("pipeline: incomparable items %#v and %#v", a, b))
}

// truthy mirrors Python's truthiness for the default Any/All predicate.
func truthy(item Item) bool {
	switch v := item.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

func defaultPred(preds []func(Item) bool) func(Item) bool {
	if len(preds) > 0 {
		return preds[0]
	}
	return truthy
}
