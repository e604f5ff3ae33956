package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicate_Matches(t *testing.T) {
	var testCases = []struct {
		name       string
		given      string
		whenRuntime string
		expect     bool
	}{
		{name: ">= satisfied", given: ">= 2.0.0", whenRuntime: "2.0.0", expect: true},
		{name: ">= unsatisfied", given: ">= 2.0.0", whenRuntime: "1.9.9", expect: false},
		{name: "== satisfied", given: "== 1.2.3", whenRuntime: "1.2.3", expect: true},
		{name: "~> minor range satisfied", given: "~> 2.1", whenRuntime: "2.1.5", expect: true},
		{name: "~> minor range unsatisfied", given: "~> 2.1", whenRuntime: "2.2.0", expect: false},
		{name: "< satisfied", given: "< 2.0.0", whenRuntime: "1.0.0", expect: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := parsePredicate(tc.given)
			require.NoError(t, err)

			rv, err := ParseVersion(tc.whenRuntime)
			require.NoError(t, err)

			assert.Equal(t, tc.expect, pred.matches(rv))
		})
	}
}

func TestPredicate_NilVersionMatchesEverything(t *testing.T) {
	pred, err := parsePredicate(">= 99.0.0")
	require.NoError(t, err)
	assert.True(t, pred.matches(nil))
}

func TestPredicate_EmptyIsUnconditional(t *testing.T) {
	pred, err := parsePredicate("")
	require.NoError(t, err)
	assert.False(t, pred.isSet())

	rv, err := ParseVersion("0.0.1")
	require.NoError(t, err)
	assert.True(t, pred.matches(rv))
}

func TestParsePredicate_InvalidSyntax(t *testing.T) {
	_, err := parsePredicate("not a version predicate!!")
	assert.Error(t, err)
}
