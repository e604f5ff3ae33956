package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAbsent(t *testing.T) {
	var testCases = []struct {
		name   string
		given  interface{}
		expect bool
	}{
		{name: "nil is absent", given: nil, expect: true},
		{name: "empty string is absent", given: "", expect: true},
		{name: "non-empty string is present", given: "x", expect: false},
		{name: "zero uint64 is absent", given: uint64(0), expect: true},
		{name: "non-zero uint64 is present", given: uint64(1), expect: false},
		{name: "zero int is absent", given: 0, expect: true},
		{name: "empty byte slice is absent", given: []byte{}, expect: true},
		{name: "non-empty byte slice is present", given: []byte{0x01}, expect: false},
		{name: "false bool is absent", given: false, expect: true},
		{name: "true bool is present", given: true, expect: false},
		{name: "zero float64 is absent", given: float64(0), expect: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, IsAbsent(tc.given))
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	sub := Record{"inner": uint64(5)}
	rec := Record{"a": uint64(1), "sub": sub}

	clone := rec.Clone()
	clone["a"] = uint64(99)
	clone["sub"].(Record)["inner"] = uint64(100)

	assert.EqualValues(t, 1, rec["a"])
	assert.EqualValues(t, 5, sub["inner"])
}

func TestToUint64(t *testing.T) {
	v, err := toUint64(uint32(7))
	assert.NoError(t, err)
	assert.EqualValues(t, 7, v)

	_, err = toUint64("not a number")
	assert.Error(t, err)
}
