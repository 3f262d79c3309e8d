package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still offered as a suggestion
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps how many suggestions a lookup returns
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions tunes suggestion lookups. The zero value of any field
// falls back to the package default.
type FuzzyMatchOptions struct {
	MaxDistance    int
	MaxSuggestions int
	CaseSensitive  bool
}

// FindSimilar returns the candidates within edit distance of target, closest
// first. Ties keep the caller's candidate order. A nil result means nothing
// came close enough; callers typically feed mistyped dataset types or config
// keys through here before giving up:
//
//	FindSimilar("BIODB", []string{"BIO_DB", "SPECTRAL_LIBRARY"}, nil)
//	// ["BIO_DB"]
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	maxDist, maxN := DefaultMaxDistance, DefaultMaxSuggestions
	caseSensitive := false
	if opts != nil {
		if opts.MaxDistance > 0 {
			maxDist = opts.MaxDistance
		}
		if opts.MaxSuggestions > 0 {
			maxN = opts.MaxSuggestions
		}
		caseSensitive = opts.CaseSensitive
	}

	normalize := func(s string) string { return s }
	if !caseSensitive {
		normalize = strings.ToLower
	}
	want := normalize(target)

	type ranked struct {
		value string
		dist  int
	}
	var close []ranked
	for _, c := range candidates {
		if d := LevenshteinDistance(want, normalize(c)); d <= maxDist {
			close = append(close, ranked{c, d})
		}
	}
	if close == nil {
		return nil
	}

	sort.SliceStable(close, func(i, j int) bool { return close[i].dist < close[j].dist })
	if len(close) > maxN {
		close = close[:maxN]
	}
	out := make([]string, len(close))
	for i, r := range close {
		out[i] = r.value
	}
	return out
}

// FindBestMatch returns the closest candidate, or "" when none is within
// the distance limit. Command arguments use this for "did you mean" hints.
func FindBestMatch(target string, candidates []string, opts *FuzzyMatchOptions) string {
	matches := FindSimilar(target, candidates, opts)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// LevenshteinDistance counts the single-rune edits (insert, delete,
// substitute) needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
