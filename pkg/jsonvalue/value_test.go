package jsonvalue

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{`{"a":1}`, KindObject},
		{`[1,2]`, KindArray},
		{`"text"`, KindString},
		{`42`, KindNumber},
		{`4.5`, KindNumber},
		{`true`, KindBool},
		{`null`, KindNull},
		{"  {}  ", KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("   \n")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("not json at all")
	assert.Error(t, err)

	_, err = Parse(`{"a":`)
	assert.Error(t, err)
}

func TestParse_RejectsOverflowingNumbers(t *testing.T) {
	for _, input := range []string{`1e400`, `-1e400`, `{"a":{"b":[1,1e400]}}`} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrNonFinite)
		})
	}

	v, err := Parse(`{"big":1e300}`)
	require.NoError(t, err)
	again, err := Parse(v.Canonical())
	require.NoError(t, err, "canonical text of a finite number parses back")
	assert.True(t, Equal(v, again))
}

func TestValue_Get(t *testing.T) {
	v := MustParse(`{"method":"POST","status":201,"headers":{"X-A":"1"}}`)

	m, ok := v.Get("method")
	require.True(t, ok)
	s, ok := m.Str()
	require.True(t, ok)
	assert.Equal(t, "POST", s)

	_, ok = v.Get("missing")
	assert.False(t, ok)

	_, ok = MustParse(`[1]`).Get("method")
	assert.False(t, ok)

	assert.True(t, v.Has("headers"))
	assert.Equal(t, []string{"headers", "method", "status"}, v.Keys())
	assert.Equal(t, 3, v.Len())
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "abc", MustParse(`"abc"`).Text())
	assert.Equal(t, "12", MustParse(`12`).Text())
	assert.Equal(t, "true", MustParse(`true`).Text())
	assert.Equal(t, "null", MustParse(`null`).Text())
	assert.Equal(t, "", MustParse(`{"a":1}`).Text())
	assert.Equal(t, "", MustParse(`[1]`).Text())
}

func TestValue_Int(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{`200`, 200, true},
		{`404.0`, 404, true},
		{`"503"`, 503, true},
		{`2.5`, 0, false},
		{`1e20`, 0, false},
		{`-1e20`, 0, false},
		{`"abc"`, 0, false},
		{`true`, 0, false},
		{`{}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := MustParse(tt.input).Int()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_Canonical(t *testing.T) {
	v := MustParse(`{ "b": [1, 2], "a": {"d": true, "c": null} }`)
	assert.Equal(t, `{"a":{"c":null,"d":true},"b":[1,2]}`, v.Canonical())

	assert.Equal(t, `"x"`, String("x").Canonical())
	assert.Equal(t, `{}`, Object().Canonical())
	assert.Equal(t, `null`, Value{}.Canonical())
}

func TestValue_With(t *testing.T) {
	base := MustParse(`{"a":1}`)
	next := base.With("b", String("two"))

	assert.JSONEq(t, `{"a":1,"b":"two"}`, next.Canonical())
	assert.JSONEq(t, `{"a":1}`, base.Canonical(), "With must not mutate the receiver")

	fromScalar := MustParse(`"x"`).With("k", Object())
	assert.JSONEq(t, `{"k":{}}`, fromScalar.Canonical())
}

func TestFrom_NormalizesDecoderShapes(t *testing.T) {
	v, err := From(map[string]any{
		"n":    3,
		"list": []any{map[any]any{"k": "v"}},
	})
	require.NoError(t, err)

	assert.Equal(t, KindObject, v.Kind())
	n, ok := v.Get("n")
	require.True(t, ok)
	got, ok := n.Int()
	require.True(t, ok)
	assert.Equal(t, 3, got)
	assert.JSONEq(t, `{"list":[{"k":"v"}],"n":3}`, v.Canonical())
}

func TestFrom_RejectsNonFinite(t *testing.T) {
	_, err := From(map[string]any{"x": []any{math.Inf(1)}})
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = From(math.NaN())
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestValue_JSONRoundTripInStruct(t *testing.T) {
	type wrapper struct {
		Body Value `json:"body"`
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"body":{"z":1,"a":[true]}}`), &w))
	assert.Equal(t, KindObject, w.Body.Kind())

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body":{"a":[true],"z":1}}`, string(out))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"key order ignored", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"nested", `{"a":{"x":[1,{"y":null}]}}`, `{"a":{"x":[1,{"y":null}]}}`, true},
		{"int equals float", `{"n":1}`, `{"n":1.0}`, true},
		{"different value", `{"a":1}`, `{"a":2}`, false},
		{"extra member", `{"a":1}`, `{"a":1,"b":2}`, false},
		{"array order matters", `[1,2]`, `[2,1]`, false},
		{"string vs number", `"1"`, `1`, false},
		{"null vs missing object", `null`, `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(MustParse(tt.a), MustParse(tt.b)))
		})
	}
}
