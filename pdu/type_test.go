package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simplePDU(t *testing.T) *Type {
	t.Helper()
	typ, err := Define("simple", []Field{
		{Name: "magic", Type: FieldTypeConstant, Size: 8, Default: uint64(0xAA)},
		{Name: "flags", Type: FieldTypeInteger, Size: 8, Default: uint64(0)},
		{Name: "value", Type: FieldTypeInteger, Size: 16},
	})
	require.NoError(t, err)
	return typ
}

func TestDefine_PropagatesSchemaError(t *testing.T) {
	_, err := Define("bad", []Field{{Name: "a", Type: FieldTypeInteger, Size: 3}})
	assert.Error(t, err)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestMustDefine_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustDefine("bad", []Field{{Name: "a", Type: FieldTypeInteger, Size: 3}})
	})
}

func TestType_Default(t *testing.T) {
	typ := simplePDU(t)
	def := typ.Default()
	assert.EqualValues(t, uint64(0), def["flags"])
	_, hasValue := def["value"]
	assert.False(t, hasValue)
	_, hasMagic := def["magic"]
	assert.False(t, hasMagic, "constant fields are not part of the value record")
}

func TestType_EncodeDecode_RoundTrip(t *testing.T) {
	typ := simplePDU(t)
	rec := Record{"flags": uint64(5), "value": uint64(300)}

	data, err := typ.Encode(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x05, 0x01, 0x2C}, data)

	out, rest, err := typ.Decode(typ.Default(), data, nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.EqualValues(t, 5, out["flags"])
	assert.EqualValues(t, 300, out["value"])
}

func TestType_Decode_LeavesUnconsumedRemainder(t *testing.T) {
	typ := simplePDU(t)
	rec := Record{"flags": uint64(1), "value": uint64(2)}
	data, err := typ.Encode(rec, nil)
	require.NoError(t, err)

	trailing := append(append([]byte{}, data...), 0xFF, 0xEE)
	out, rest, err := typ.Decode(typ.Default(), trailing, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xEE}, rest)
	assert.EqualValues(t, 1, out["flags"])
}

func TestType_Decode_ConstantMismatch(t *testing.T) {
	typ := simplePDU(t)
	bad := []byte{0xAB, 0x00, 0x00, 0x00}
	_, _, err := typ.Decode(typ.Default(), bad, nil)
	assert.ErrorIs(t, err, ErrConstantMismatch)
}

func TestType_Encode_MissingValueErrors(t *testing.T) {
	typ := simplePDU(t)
	_, err := typ.Encode(Record{"flags": uint64(1)}, nil)
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestType_Decode_ShortInput(t *testing.T) {
	typ := simplePDU(t)
	_, _, err := typ.Decode(typ.Default(), []byte{0xAA}, nil)
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestType_Subrecord_RoundTrip(t *testing.T) {
	inner := MustDefine("inner", []Field{
		{Name: "x", Type: FieldTypeInteger, Size: 8},
	})
	outer := MustDefine("outer", []Field{
		{Name: "header", Type: FieldTypeInteger, Size: 8},
		{Name: "body", Type: FieldTypeSubrecord, Sub: inner, Default: Record{"x": uint64(0)}},
	})

	rec := Record{"header": uint64(1), "body": Record{"x": uint64(42)}}
	data, err := outer.Encode(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x2A}, data)

	out, _, err := outer.Decode(outer.Default(), data, nil)
	require.NoError(t, err)
	sub, ok := out["body"].(Record)
	require.True(t, ok)
	assert.EqualValues(t, 42, sub["x"])
}
