package commands

import (
	"testing"
)

func TestFirstNonEmpty(t *testing.T) {
	testCases := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "first wins", values: []string{"a", "b"}, expected: "a"},
		{name: "skips empty", values: []string{"", "b", "c"}, expected: "b"},
		{name: "all empty", values: []string{"", ""}, expected: ""},
		{name: "no values", values: nil, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstNonEmpty(tc.values...); got != tc.expected {
				t.Errorf("firstNonEmpty(%v) = %q, want %q", tc.values, got, tc.expected)
			}
		})
	}
}

func TestDebugLogger(t *testing.T) {
	old := debugFlag
	defer func() { debugFlag = old }()

	debugFlag = false
	if debugLogger() == nil {
		t.Error("expected a logger with debug off")
	}

	debugFlag = true
	if debugLogger() == nil {
		t.Error("expected a logger with debug on")
	}
}
