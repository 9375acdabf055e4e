package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"bool true", IRBool(true), "true"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
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
	obj := IRObject{
		"z": IRObject{"b": IRInt(1), "a": IRInt(2)},
		"a": IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, which sorts
	// before U+E000 in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uE000":     IRInt(1),
		"\U00010000": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalEscaping(t *testing.T) {
	// Only quote, backslash and C0 controls are escaped; U+2028 passes through.
	result, err := MarshalCanonical(IRString("a\"b\\c\n\x01<>&\u2028"))
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\n\u0001<>&`+"\u2028"+`"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	a, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	b, err := MarshalCanonical(IRString("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"x": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestNodeEncodingIsCanonical(t *testing.T) {
	n := BinaryOp{Lhs: 2, Rhs: 1, Op: Add}

	b, err := MarshalCanonical(n.Encode())
	require.NoError(t, err)
	assert.Equal(t, `{"lhs":2,"n":"binop","op":"add","rhs":1}`, string(b))
}

func TestRootEncodingUsesRootTag(t *testing.T) {
	b, err := MarshalCanonical(StLoc{Local: 1, Value: 4}.Encode())
	require.NoError(t, err)
	assert.Equal(t, `{"local":1,"r":"stloc","value":4}`, string(b))
}

func TestConstFloatEncodedByBits(t *testing.T) {
	b, err := MarshalCanonical(NewConstF64(1.0).Encode())
	require.NoError(t, err)
	assert.Equal(t, `{"bits":"0x3ff0000000000000","n":"const_float","type":"f64"}`, string(b))
}
