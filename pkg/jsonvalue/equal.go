package jsonvalue

import (
	"encoding/json"
	"math/big"
)

// Equal reports whether a and b are structurally equivalent JSON: same kinds,
// object members compared irrespective of order, arrays element-wise and
// numbers by numeric value (1 equals 1.0).
func Equal(a, b Value) bool {
	return equalData(a.data, b.data)
}

func equalData(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalData(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equalData(xv, yv) {
				return false
			}
		}
		return true
	default:
		xn, ok := numberOf(a)
		if !ok {
			return false
		}
		yn, ok := numberOf(b)
		if !ok {
			return false
		}
		return xn.Cmp(yn) == 0
	}
}

// numberOf converts any numeric representation a decoder may produce into
// an exact rational.
func numberOf(data any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := data.(type) {
	case int64:
		return r.SetInt64(n), true
	case float64:
		if r.SetFloat64(n) == nil {
			return nil, false
		}
		return r, true
	case json.Number:
		_, ok := r.SetString(n.String())
		return r, ok
	case *big.Int:
		return r.SetInt(n), true
	case *big.Float:
		if n.IsInf() {
			return nil, false
		}
		n.Rat(r)
		return r, true
	case interface{ String() string }:
		_, ok := r.SetString(n.String())
		return r, ok
	default:
		return nil, false
	}
}
