package jsonvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// Kind identifies the JSON type held by a Value.
type Kind uint8

// JSON kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// ErrEmpty is returned by Parse when the input holds no JSON text.
var ErrEmpty = errors.New("empty JSON text")

// ErrNonFinite is returned for numbers that overflow float64, such as 1e400.
// They cannot be written back as JSON.
var ErrNonFinite = errors.New("number out of range")

// canonicalOptions writes compact JSON with sorted object keys.
var canonicalOptions = func() ojg.Options {
	opts := ojg.DefaultOptions
	opts.Indent = 0
	opts.Sort = true
	return opts
}()

// Value is an immutable parsed JSON document.
//
// The zero Value is JSON null.
type Value struct {
	data any
}

// Parse parses text as a single JSON document.
func Parse(text string) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return Value{}, ErrEmpty
	}
	data, err := oj.ParseString(text)
	if err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	data = normalize(data)
	if err := checkFinite(data); err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return Value{data: data}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// From wraps data produced by a JSON or YAML decoder or built by hand from
// maps, slices and scalars. Maps with non-string keys, as YAML produces, get
// their keys stringified. Infinite and NaN numbers are rejected.
func From(data any) (Value, error) {
	data = normalize(data)
	if err := checkFinite(data); err != nil {
		return Value{}, err
	}
	return Value{data: data}, nil
}

// checkFinite walks normalized data looking for Inf and NaN.
func checkFinite(data any) error {
	switch d := data.(type) {
	case float64:
		if math.IsInf(d, 0) || math.IsNaN(d) {
			return ErrNonFinite
		}
	case map[string]any:
		for k, v := range d {
			if err := checkFinite(v); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case []any:
		for i, v := range d {
			if err := checkFinite(v); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Object returns an empty JSON object.
func Object() Value {
	return Value{data: map[string]any{}}
}

// String returns a JSON string value.
func String(s string) Value {
	return Value{data: s}
}

// normalize converts decoder-specific containers into map[string]any and
// []any so the rest of the package only deals with those two shapes.
func normalize(data any) any {
	switch d := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[k] = normalize(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[fmt.Sprint(k)] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, v := range d {
			out[i] = normalize(v)
		}
		return out
	case int:
		return int64(d)
	case int32:
		return int64(d)
	case float32:
		return float64(d)
	case Value:
		return d.data
	default:
		return d
	}
}

// Kind returns the JSON type of v.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindNumber
	}
}

// IsObject reports whether v is a JSON object.
func (v Value) IsObject() bool { return v.Kind() == KindObject }

// IsString reports whether v is a JSON string.
func (v Value) IsString() bool { return v.Kind() == KindString }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.data == nil }

// Interface returns the underlying decoded data.
func (v Value) Interface() any { return v.data }

// Get returns the member key of an object. ok is false when v is not an
// object or has no such member.
func (v Value) Get(key string) (Value, bool) {
	obj, isObj := v.data.(map[string]any)
	if !isObj {
		return Value{}, false
	}
	member, ok := obj[key]
	if !ok {
		return Value{}, false
	}
	return Value{data: member}, true
}

// Has reports whether v is an object with member key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns the member names of an object in sorted order.
func (v Value) Keys() []string {
	obj, ok := v.data.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of members of an object or elements of an array.
func (v Value) Len() int {
	switch d := v.data.(type) {
	case map[string]any:
		return len(d)
	case []any:
		return len(d)
	default:
		return 0
	}
}

// With returns a copy of object v with key set to member. A non-object v is
// treated as an empty object.
func (v Value) With(key string, member Value) Value {
	src, _ := v.data.(map[string]any)
	out := make(map[string]any, len(src)+1)
	for k, m := range src {
		out[k] = m
	}
	out[key] = member.data
	return Value{data: out}
}

// Str returns the string held by v. ok is false for non-string values.
func (v Value) Str() (string, bool) {
	s, ok := v.data.(string)
	return s, ok
}

// Text returns a textual rendering suitable for lenient field reads.
// Strings are returned as-is, scalars as their JSON text and containers as
// the empty string.
func (v Value) Text() string {
	switch d := v.data.(type) {
	case string:
		return d
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(d)
	case map[string]any, []any:
		return ""
	default:
		return v.Canonical()
	}
}

// Int returns v as an int. Integral numbers and strings holding an integer
// convert; everything else, including integers outside the int range,
// reports ok == false.
func (v Value) Int() (int, bool) {
	switch d := v.data.(type) {
	case int64:
		if d < math.MinInt || d > math.MaxInt {
			return 0, false
		}
		return int(d), true
	case float64:
		if d != math.Trunc(d) || d < math.MinInt || d >= math.MaxInt {
			return 0, false
		}
		return int(d), true
	case json.Number:
		n, err := strconv.ParseInt(string(d), 10, strconv.IntSize)
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Canonical returns compact JSON text with object keys sorted.
func (v Value) Canonical() string {
	return oj.JSON(v.data, &canonicalOptions)
}

// String implements fmt.Stringer with the canonical encoding.
func (v Value) String() string {
	return v.Canonical()
}

// MarshalJSON encodes v canonically so a Value can be embedded in API
// responses.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Canonical()), nil
}

// UnmarshalJSON decodes arbitrary JSON into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
