package relation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SelectionError reports interactive input that could not be interpreted.
// It never leaves the linker; the user is re-prompted instead.
type SelectionError struct {
	Input  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// IsSelectionError checks if an error is a SelectionError.
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}

// ParseSelection interprets one line of selection input against a list of n
// numbered candidates. Accepted forms are comma-separated one-based indices
// ("1,3"), ranges ("1-3"), "all", and their combinations. An empty line or
// "none" selects nothing. The result is zero-based, deduplicated, and
// ascending. ParseSelection is pure; prompting and re-prompting live in the
// linker.
func ParseSelection(input string, n int) ([]int, error) {
	trimmed := strings.TrimSpace(input)
	switch strings.ToLower(trimmed) {
	case "", "none":
		return nil, nil
	case "all":
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	picked := map[int]bool{}
	for _, field := range strings.Split(trimmed, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, &SelectionError{Input: input, Reason: "empty element"}
		}

		lo, hi, err := parseField(input, field, n)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			picked[i-1] = true
		}
	}

	out := make([]int, 0, len(picked))
	for i := range picked {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

func parseField(input, field string, n int) (lo, hi int, err error) {
	if left, right, isRange := strings.Cut(field, "-"); isRange {
		lo, err = parseIndex(input, strings.TrimSpace(left), n)
		if err != nil {
			return 0, 0, err
		}
		hi, err = parseIndex(input, strings.TrimSpace(right), n)
		if err != nil {
			return 0, 0, err
		}
		if lo > hi {
			return 0, 0, &SelectionError{Input: input, Reason: fmt.Sprintf("range %s runs backwards", field)}
		}
		return lo, hi, nil
	}

	idx, err := parseIndex(input, field, n)
	if err != nil {
		return 0, 0, err
	}
	return idx, idx, nil
}

func parseIndex(input, s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, &SelectionError{Input: input, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	if idx < 1 || idx > n {
		return 0, &SelectionError{Input: input, Reason: fmt.Sprintf("%d is out of range 1-%d", idx, n)}
	}
	return idx, nil
}
