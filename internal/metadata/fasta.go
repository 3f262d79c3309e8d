package metadata

import (
	"bytes"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Organism token patterns, tried in order. UniProt headers carry OS=<name>
// terminated by the next two-letter field tag; NCBI puts the organism in
// square brackets; a few databases use bare parentheses.
var (
	osTokenPattern = regexp.MustCompile(`OS=([^=]+?)(?:\s+[A-Z]{2}=|$)`)
	bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	parenPattern   = regexp.MustCompile(`\(([^)]+)\)`)
)

// Parenthesized text is often a sequence annotation rather than an organism;
// candidates containing these words are discarded.
var rejectWords = []string{"fragment", "partial", "predicted", "uncharacterized"}

// ParseFasta extracts entry and species statistics from FASTA content. It
// fails with a ParseError when the content holds no entry headers at all.
// Entries whose header carries no recognizable organism token still count
// toward EntryCount but not toward the breakdown, which is why breakdown
// percentages can sum below 100.
func ParseFasta(content []byte) (FastaMetadata, error) {
	entryCount := 0
	counts := map[string]int{}
	var order []string

	rest := content
	for len(rest) > 0 {
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
		} else {
			rest = nil
		}
		if len(line) == 0 || line[0] != '>' {
			continue
		}
		entryCount++

		species := speciesFromHeader(strings.TrimRight(string(line[1:]), "\r"))
		if species == "" {
			continue
		}
		if _, seen := counts[species]; !seen {
			order = append(order, species)
		}
		counts[species]++
	}

	if entryCount == 0 {
		return FastaMetadata{}, &ParseError{Kind: KindFasta, Reason: "no entry headers found"}
	}

	meta := FastaMetadata{
		EntryCount:      entryCount,
		DistinctSpecies: len(counts),
		FileSizeMB:      math.Round(float64(len(content))/(1024*1024)*100) / 100,
	}
	if len(order) == 0 {
		return meta, nil
	}

	breakdown := make([]SpeciesCount, 0, len(order))
	for _, species := range order {
		count := counts[species]
		breakdown = append(breakdown, SpeciesCount{
			Species:    species,
			Count:      count,
			Percentage: math.Round(float64(count)/float64(entryCount)*1000) / 10,
		})
	}
	// Stable sort keeps ties in first-encountered order.
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Count > breakdown[j].Count
	})
	meta.PrimarySpecies = breakdown[0].Species
	if len(breakdown) > 5 {
		breakdown = breakdown[:5]
	}
	meta.SpeciesBreakdown = breakdown
	return meta, nil
}

// speciesFromHeader pulls the organism name out of one entry header. The
// pattern families are mutually exclusive: once a family's sentinel appears
// in the header, the later families are not consulted even if the match
// fails.
func speciesFromHeader(header string) string {
	switch {
	case strings.Contains(header, "OS="):
		if m := osTokenPattern.FindStringSubmatch(header); m != nil {
			return normalizeSpecies(m[1])
		}
	case strings.Contains(header, "[") && strings.Contains(header, "]"):
		if m := bracketPattern.FindStringSubmatch(header); m != nil {
			return normalizeSpecies(m[1])
		}
	case strings.Contains(header, "(") && strings.Contains(header, ")"):
		if m := parenPattern.FindStringSubmatch(header); m != nil {
			candidate := normalizeSpecies(m[1])
			lower := strings.ToLower(candidate)
			for _, w := range rejectWords {
				if strings.Contains(lower, w) {
					return ""
				}
			}
			return candidate
		}
	}
	return ""
}

// normalizeSpecies trims and collapses whitespace while preserving case, so
// spacing variants of one organism name count together.
func normalizeSpecies(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
