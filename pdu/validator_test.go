package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_OK(t *testing.T) {
	err := validate("ok_type", []Field{
		{Name: "flag", Type: FieldTypeInteger, Size: 4},
		{Name: "value", Type: FieldTypeInteger, Size: 4},
	})
	assert.NoError(t, err)
}

func TestValidate_DuplicateName(t *testing.T) {
	err := validate("dup_type", []Field{
		{Name: "a", Type: FieldTypeInteger, Size: 8},
		{Name: "a", Type: FieldTypeInteger, Size: 8},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "collides")
}

func TestValidate_EmptyName(t *testing.T) {
	err := validate("t", []Field{{Name: "", Type: FieldTypeInteger, Size: 8}})
	assert.Error(t, err)
}

func TestValidate_NotByteAligned(t *testing.T) {
	err := validate("t", []Field{{Name: "a", Type: FieldTypeInteger, Size: 3}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "byte-aligned")
}

func TestValidate_ConstantMissingDefault(t *testing.T) {
	err := validate("t", []Field{{Name: "magic", Type: FieldTypeConstant, Size: 8}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "constant field must declare a default")
}

func TestValidate_SubrecordMissingSub(t *testing.T) {
	err := validate("t", []Field{{Name: "nested", Type: FieldTypeSubrecord, Default: Record{}}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must declare Sub")
}

func TestValidate_SubrecordMissingDefault(t *testing.T) {
	inner := MustDefine("inner", []Field{{Name: "x", Type: FieldTypeInteger, Size: 8}})
	err := validate("t", []Field{{Name: "nested", Type: FieldTypeSubrecord, Sub: inner}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must declare a default")
}

func TestValidate_SubrecordDefaultWrongType(t *testing.T) {
	inner := MustDefine("inner", []Field{{Name: "x", Type: FieldTypeInteger, Size: 8}})
	err := validate("t", []Field{{Name: "nested", Type: FieldTypeSubrecord, Sub: inner, Default: "not a record"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be a Record")
}

func TestValidate_FloatBadSize(t *testing.T) {
	err := validate("t", []Field{{Name: "f", Type: FieldTypeFloat, Size: 16}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "float size must be 32 or 64")
}

func TestValidate_VariableMissingSizeField(t *testing.T) {
	err := validate("t", []Field{{Name: "payload", Type: FieldTypeVariable}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must name a sibling length field")
}

func TestValidate_VariableSizeFieldMissing(t *testing.T) {
	err := validate("t", []Field{{Name: "payload", Type: FieldTypeVariable, SizeField: "len"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate_VariableSizeFieldDeclaredAfter(t *testing.T) {
	err := validate("t", []Field{
		{Name: "payload", Type: FieldTypeVariable, SizeField: "len"},
		{Name: "len", Type: FieldTypeInteger, Size: 8},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be declared before")
}

func TestValidate_VariableSizeFieldNotInteger(t *testing.T) {
	err := validate("t", []Field{
		{Name: "len", Type: FieldTypeFloat, Size: 32},
		{Name: "payload", Type: FieldTypeVariable, SizeField: "len"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer field")
}

func TestValidate_OffsetToNotPlainInteger(t *testing.T) {
	err := validate("t", []Field{
		{Name: "target", Type: FieldTypeInteger, Size: 8},
		{Name: "off", Type: FieldTypeFloat, Size: 32, OffsetTo: "target"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be a plain integer field")
}

func TestValidate_OffsetToUnknownTarget(t *testing.T) {
	err := validate("t", []Field{
		{Name: "off", Type: FieldTypeInteger, Size: 8, OffsetTo: "missing"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate_ConditionalUnknownTarget(t *testing.T) {
	err := validate("t", []Field{
		{Name: "a", Type: FieldTypeInteger, Size: 8, Conditional: "missing"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate_ConditionalSelfReferenceAllowed(t *testing.T) {
	err := validate("t", []Field{
		{Name: "a", Type: FieldTypeInteger, Size: 8, Conditional: "a"},
	})
	assert.NoError(t, err)
}

func TestValidate_CustomCodecMustDeclareBoth(t *testing.T) {
	err := validate("t", []Field{
		{
			Name: "a", Type: FieldTypeInteger, Size: 8,
			CustomEncode: func(value interface{}) ([]byte, int, error) { return nil, 0, nil },
		},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must also declare decode")
}

func TestValidate_BadVersionPredicate(t *testing.T) {
	err := validate("t", []Field{
		{Name: "a", Type: FieldTypeInteger, Size: 8, Version: "??not a predicate"},
	})
	assert.Error(t, err)
}
