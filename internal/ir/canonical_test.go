package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(math.MaxInt64), "9223372036854775807"},
		{"float", Float(0.5), "0.5"},
		{"whole float", Float(1), "1"},
		{"third", Float(1.0 / 3), "0.3333333333333333"},
		{"tiny float", Float(1e-21), "1e-21"},
		{"negative zero", Float(math.Copysign(0, -1)), "0"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array", Array{Int(1), Float(2.5), Null{}}, "[1,2.5,null]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Object{"b": Int(1), "a": Int(2)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before E000.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(Array{Float(f)})
		assert.Error(t, err, "%v", f)
	}
	_, err := MarshalCanonical(Object{"score": Float(math.NaN())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["score"]`)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`a"b`, `"a\"b"`},
		{`a\b`, `"a\\b"`},
		{"tab\there", `"tab\there"`},
		{"line\nbreak", `"line\nbreak"`},
		{"\x01", `"\u0001"`},
		{"<b>&</b>", `"<b>&</b>"`},
		{"\u2028\u2029", "\"\u2028\u2029\""},
	}
	for _, tt := range tests {
		result, err := MarshalCanonical(String(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(result))
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(Object{decomposed: String(decomposed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(Object{composed: String(composed)})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
	assert.Equal(t, "{\"\u00e9\":\"\u00e9\"}", string(a))
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	obj := NewObject(
		O("units", Strings([]string{"A", "B"})),
		O("scores", Floats([]float64{1, 0.5})),
		O("cross", Array{OptFloat(0.25, true), OptFloat(0, false)}),
	)
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"cross":[0.25,null],"scores":[1,0.5],"units":["A","B"]}`, string(first))
}
