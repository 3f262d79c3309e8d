package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Markers recognized in DIA-NN log output. The log format is not
// contractually fixed, so extraction is best-effort: a missing or garbled
// marker leaves its field unset and is never an error.
var (
	toolVersionMarker = regexp.MustCompile(`DIA-NN ([\d.]+)`)
	generatedMarker   = regexp.MustCompile(`Current date and time: (.+)`)
	precursorsMarker  = regexp.MustCompile(`(\d+) precursors generated`)
	proteinsMarker    = regexp.MustCompile(`Library contains (\d+) proteins`)
	genesMarker       = regexp.MustCompile(`and (\d+) genes`)
	fastaFlagMarker   = regexp.MustCompile(`--fasta (\S+)`)
	minPepLenMarker   = regexp.MustCompile(`--min-pep-len (\d+)`)
	maxPepLenMarker   = regexp.MustCompile(`--max-pep-len (\d+)`)
	minPrecMZMarker   = regexp.MustCompile(`--min-pr-mz (\d+)`)
	maxPrecMZMarker   = regexp.MustCompile(`--max-pr-mz (\d+)`)
	threadsMarker     = regexp.MustCompile(`Thread number set to (\d+)`)
)

// ParseGenerationLog extracts spectral-library metadata from the generating
// tool's log. The zero value comes back for content with no recognizable
// markers.
func ParseGenerationLog(content []byte) SpectralLibraryMetadata {
	log := string(content)
	meta := SpectralLibraryMetadata{
		ProteinCount:   findCount(proteinsMarker, log),
		PrecursorCount: findCount(precursorsMarker, log),
		GeneCount:      findCount(genesMarker, log),
		MinPeptideLen:  findCount(minPepLenMarker, log),
		MaxPeptideLen:  findCount(maxPepLenMarker, log),
		MinPrecursorMZ: findCount(minPrecMZMarker, log),
		MaxPrecursorMZ: findCount(maxPrecMZMarker, log),
		ThreadsUsed:    findCount(threadsMarker, log),
	}

	if m := toolVersionMarker.FindStringSubmatch(log); m != nil {
		meta.ToolVersion = m[1]
	}
	if m := generatedMarker.FindStringSubmatch(log); m != nil {
		meta.GenerationDate = strings.TrimSpace(m[1])
	}
	if m := fastaFlagMarker.FindStringSubmatch(log); m != nil {
		meta.SourceFastaPath = m[1]
		meta.SourceFasta = filepath.Base(m[1])
	}

	if strings.Contains(log, "Deep learning will be used") {
		meta.Methods = append(meta.Methods, "Deep learning prediction")
	}
	if strings.Contains(log, "--gen-spec-lib") {
		meta.Methods = append(meta.Methods, "In silico library generation")
	}
	if strings.Contains(log, "--predictor") {
		meta.Methods = append(meta.Methods, "RT predictor")
	}

	if strings.Contains(log, "Cysteine carbamidomethylation enabled") {
		meta.Modifications = append(meta.Modifications, "Cysteine carbamidomethylation (fixed)")
	}
	if strings.Contains(log, "--met-excision") {
		meta.Modifications = append(meta.Modifications, "N-terminal methionine excision")
	}
	if strings.Contains(log, "--unimod4") {
		meta.Modifications = append(meta.Modifications, "Unimod modifications")
	}
	return meta
}

// findCount returns the first integer captured by marker, or nil when the
// marker is absent or its capture does not parse.
func findCount(marker *regexp.Regexp, log string) *int {
	m := marker.FindStringSubmatch(log)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
