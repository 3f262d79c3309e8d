package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  []int
	}{
		{name: "single index", input: "2", n: 3, want: []int{1}},
		{name: "comma separated", input: "1,3", n: 3, want: []int{0, 2}},
		{name: "range", input: "1-3", n: 5, want: []int{0, 1, 2}},
		{name: "mixed", input: "1,3-5,2", n: 5, want: []int{0, 1, 2, 3, 4}},
		{name: "duplicates collapse", input: "2,2,1-2", n: 3, want: []int{0, 1}},
		{name: "all", input: "all", n: 3, want: []int{0, 1, 2}},
		{name: "all case insensitive", input: "ALL", n: 2, want: []int{0, 1}},
		{name: "spaces tolerated", input: " 1 , 3 ", n: 3, want: []int{0, 2}},
		{name: "range with spaces", input: "1 - 2", n: 3, want: []int{0, 1}},
		{name: "empty selects nothing", input: "", n: 3, want: nil},
		{name: "none selects nothing", input: "none", n: 3, want: nil},
		{name: "whitespace only", input: "   ", n: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.input, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelection_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		n      int
		reason string
	}{
		{name: "not a number", input: "x", n: 3, reason: "not a number"},
		{name: "zero index", input: "0", n: 3, reason: "out of range"},
		{name: "past end", input: "4", n: 3, reason: "out of range"},
		{name: "range past end", input: "1-9", n: 3, reason: "out of range"},
		{name: "backwards range", input: "3-1", n: 3, reason: "runs backwards"},
		{name: "empty element", input: "1,,3", n: 3, reason: "empty element"},
		{name: "garbage range", input: "a-b", n: 3, reason: "not a number"},
		{name: "trailing comma", input: "1,", n: 3, reason: "empty element"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSelection(tt.input, tt.n)
			require.Error(t, err)
			assert.True(t, IsSelectionError(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestParseSelection_AllOfNothing(t *testing.T) {
	got, err := ParseSelection("all", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
