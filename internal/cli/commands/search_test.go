package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/gobis-cli/gobis/internal/openbis"
)

func TestNewSearchCommand_Flags(t *testing.T) {
	cmd := NewSearchCommand()

	if cmd.Use != "search <query>" {
		t.Errorf("expected Use to be 'search <query>', got %s", cmd.Use)
	}

	for _, flag := range []string{"type", "limit", "property"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
}

func TestSearchTypes(t *testing.T) {
	testCases := []struct {
		name        string
		flag        string
		expected    []openbis.EntryType
		expectError bool
		errSubstr   string
	}{
		{
			name:     "empty means all",
			flag:     "",
			expected: []openbis.EntryType{openbis.TypeExperiment, openbis.TypeSample, openbis.TypeDataset},
		},
		{
			name:     "all",
			flag:     "all",
			expected: []openbis.EntryType{openbis.TypeExperiment, openbis.TypeSample, openbis.TypeDataset},
		},
		{
			name:     "plural datasets",
			flag:     "datasets",
			expected: []openbis.EntryType{openbis.TypeDataset},
		},
		{
			name:     "singular dataset",
			flag:     "dataset",
			expected: []openbis.EntryType{openbis.TypeDataset},
		},
		{
			name:     "case insensitive",
			flag:     "SAMPLES",
			expected: []openbis.EntryType{openbis.TypeSample},
		},
		{
			name:        "typo suggests correction",
			flag:        "experimens",
			expectError: true,
			errSubstr:   `did you mean "experiments"`,
		},
		{
			name:        "no close match lists options",
			flag:        "qqqqqqq",
			expectError: true,
			errSubstr:   "expected experiments, samples, datasets, or all",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			types, err := searchTypes(tc.flag)

			if tc.expectError {
				if err == nil {
					t.Fatalf("expected error for flag %q", tc.flag)
				}
				if !strings.Contains(err.Error(), tc.errSubstr) {
					t.Errorf("expected error to contain %q, got %q", tc.errSubstr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(types) != len(tc.expected) {
				t.Fatalf("expected %d types, got %d", len(tc.expected), len(types))
			}
			for i, typ := range types {
				if typ != tc.expected[i] {
					t.Errorf("expected type %d to be %s, got %s", i, tc.expected[i], typ)
				}
			}
		})
	}
}

func TestWildcardQuery(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected string
	}{
		{name: "plain term is wrapped", query: "human", expected: "*human*"},
		{name: "existing wildcard untouched", query: "uniprot*", expected: "uniprot*"},
		{name: "inner wildcard untouched", query: "uni*prot", expected: "uni*prot"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wildcardQuery(tc.query); got != tc.expected {
				t.Errorf("wildcardQuery(%q) = %q, want %q", tc.query, got, tc.expected)
			}
		})
	}
}

func TestSectionTitle(t *testing.T) {
	if got := sectionTitle(openbis.TypeExperiment); got != "Experiments" {
		t.Errorf("expected 'Experiments', got %s", got)
	}

	if got := sectionTitle(openbis.TypeSample); got != "Samples" {
		t.Errorf("expected 'Samples', got %s", got)
	}

	if got := sectionTitle(openbis.TypeDataset); got != "Datasets" {
		t.Errorf("expected 'Datasets', got %s", got)
	}
}

func TestFormatRegistered(t *testing.T) {
	if got := formatRegistered(time.Time{}); got != "" {
		t.Errorf("expected empty string for zero time, got %q", got)
	}

	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := formatRegistered(ts); got != "2024-01-15 10:30" {
		t.Errorf("expected '2024-01-15 10:30', got %q", got)
	}
}
