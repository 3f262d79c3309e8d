// Package metadata extracts structured records from the scientific files the
// catalog stores: protein sequence databases (FASTA) and the logs written by
// the tools that generate spectral libraries. Extraction is pure text
// processing; nothing in this package touches the network or the filesystem.
package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind identifies the recognized file families.
type Kind string

const (
	KindFasta           Kind = "fasta"
	KindSpectralLibrary Kind = "spectral_library"
	KindUnknown         Kind = "unknown"
)

// DatasetType returns the catalog dataset type registered for files of this
// kind.
func (k Kind) DatasetType() string {
	switch k {
	case KindFasta:
		return "BIO_DB"
	case KindSpectralLibrary:
		return "SPECTRAL_LIBRARY"
	default:
		return "UNKNOWN"
	}
}

// DefaultCollection returns the collection files of this kind are uploaded to
// when the caller does not override it.
func (k Kind) DefaultCollection() string {
	switch k {
	case KindFasta:
		return "/DDB/CK/FASTA"
	case KindSpectralLibrary:
		return "/DDB/CK/PREDSPECLIB"
	default:
		return "/DDB/CK/UNKNOWN"
	}
}

// DetectKind classifies a file by its name. Tabular files only count as
// spectral libraries when the name itself says so, since plain .tsv exports
// are common.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fasta", ".fa", ".fas":
		return KindFasta
	case ".speclib", ".sptxt":
		return KindSpectralLibrary
	case ".tsv", ".csv":
		if strings.Contains(strings.ToLower(stem(path)), "lib") {
			return KindSpectralLibrary
		}
	}
	return KindUnknown
}

// Record is the tagged union of extracted metadata. Concrete types are
// FastaMetadata and SpectralLibraryMetadata; consumers type-switch on the
// value after checking Kind.
type Record interface {
	Kind() Kind
}

// SpeciesCount is one row of a species breakdown. Percentage is relative to
// the total entry count, so rows for entries without a recognizable organism
// leave the column summing below 100.
type SpeciesCount struct {
	Species    string
	Count      int
	Percentage float64
}

// FastaMetadata describes a protein sequence database.
type FastaMetadata struct {
	EntryCount       int
	SpeciesBreakdown []SpeciesCount
	PrimarySpecies   string
	DistinctSpecies  int
	FileSizeMB       float64
	Version          string
}

func (FastaMetadata) Kind() Kind { return KindFasta }

// SuggestedName derives a display name from the source filename plus the
// strongest metadata signals.
func (m FastaMetadata) SuggestedName(filename string) string {
	name := stem(filename)
	if m.Version != "" {
		name += " v" + m.Version
	}
	if m.PrimarySpecies != "" {
		name += " (" + m.PrimarySpecies + ")"
	}
	return name
}

// Properties maps the record onto the BIO_DB dataset schema: $name, version,
// and a product.description summary line. User notes ride along under notes;
// servers without that property on BIO_DB drop it.
func (m FastaMetadata) Properties(name, userNotes string) map[string]string {
	props := map[string]string{"$name": name}
	if m.Version != "" {
		props["version"] = m.Version
	}

	var parts []string
	if m.EntryCount > 0 {
		parts = append(parts, fmt.Sprintf("%d entries", m.EntryCount))
	}
	if m.PrimarySpecies != "" {
		parts = append(parts, "Primary species: "+m.PrimarySpecies)
	}
	if m.DistinctSpecies > 0 {
		parts = append(parts, fmt.Sprintf("%d species", m.DistinctSpecies))
	}
	if m.FileSizeMB > 0 {
		parts = append(parts, fmt.Sprintf("%.2f MB", m.FileSizeMB))
	}
	if len(parts) > 0 {
		props["product.description"] = strings.Join(parts, " | ")
	}
	if userNotes != "" {
		props["notes"] = userNotes
	}
	return props
}

// SpectralLibraryMetadata describes a predicted spectral library, recovered
// from the generation tool's log. Every field is optional; pointer fields are
// nil when the log never mentioned them.
type SpectralLibraryMetadata struct {
	ToolVersion     string
	GenerationDate  string
	SourceFasta     string
	SourceFastaPath string
	ProteinCount    *int
	PrecursorCount  *int
	GeneCount       *int
	MinPeptideLen   *int
	MaxPeptideLen   *int
	MinPrecursorMZ  *int
	MaxPrecursorMZ  *int
	Modifications   []string
	Methods         []string
	ThreadsUsed     *int
}

func (SpectralLibraryMetadata) Kind() Kind { return KindSpectralLibrary }

// Empty reports whether no marker at all was recognized.
func (m SpectralLibraryMetadata) Empty() bool {
	return m.ToolVersion == "" && m.GenerationDate == "" && m.SourceFasta == "" &&
		m.ProteinCount == nil && m.PrecursorCount == nil && m.GeneCount == nil &&
		m.MinPeptideLen == nil && m.MaxPeptideLen == nil &&
		m.MinPrecursorMZ == nil && m.MaxPrecursorMZ == nil &&
		len(m.Modifications) == 0 && len(m.Methods) == 0 && m.ThreadsUsed == nil
}

// SuggestedName derives a display name from the library filename, its source
// database, and the generating tool.
func (m SpectralLibraryMetadata) SuggestedName(filename string) string {
	parts := []string{stem(filename)}
	if m.SourceFasta != "" {
		parts = append(parts, "("+stem(m.SourceFasta)+")")
	}
	if m.ProteinCount != nil {
		parts = append(parts, fmt.Sprintf("%d proteins", *m.ProteinCount))
	}
	if m.ToolVersion != "" {
		parts = append(parts, "DIA-NN v"+m.ToolVersion)
	}
	return strings.Join(parts, " ")
}

// Properties maps the record onto the SPECTRAL_LIBRARY dataset schema. The
// schema has no $name, so the display name leads the notes field instead.
func (m SpectralLibraryMetadata) Properties(name, userNotes string) map[string]string {
	props := map[string]string{"notes": m.notes(name, userNotes)}
	if m.ProteinCount != nil {
		props["n_proteins"] = strconv.Itoa(*m.ProteinCount)
	}
	if m.PrecursorCount != nil {
		props["n_peptides"] = strconv.Itoa(*m.PrecursorCount)
	}
	return props
}

func (m SpectralLibraryMetadata) notes(name, userNotes string) string {
	var parts []string
	if name != "" {
		parts = append(parts, "Library: "+name)
	}
	if userNotes != "" {
		parts = append(parts, "Description: "+userNotes)
	}
	parts = append(parts,
		"DIA-NN version: "+orUnknown(m.ToolVersion),
		"Generated: "+orUnknown(m.GenerationDate),
		"FASTA: "+orUnknown(m.SourceFasta),
		"Method: "+orUnknown(strings.Join(m.Methods, ", ")),
		"Precursors: "+orUnknownInt(m.PrecursorCount),
		"Proteins: "+orUnknownInt(m.ProteinCount),
		"Genes: "+orUnknownInt(m.GeneCount),
	)

	var params []string
	if m.MinPeptideLen != nil && m.MaxPeptideLen != nil {
		params = append(params, fmt.Sprintf("Peptide length: %d-%d", *m.MinPeptideLen, *m.MaxPeptideLen))
	}
	if m.MinPrecursorMZ != nil && m.MaxPrecursorMZ != nil {
		params = append(params, fmt.Sprintf("Precursor m/z: %d-%d", *m.MinPrecursorMZ, *m.MaxPrecursorMZ))
	}
	if len(m.Modifications) > 0 {
		params = append(params, "Modifications: "+strings.Join(m.Modifications, ", "))
	}
	if len(params) > 0 {
		parts = append(parts, "Parameters: "+strings.Join(params, "; "))
	}
	return strings.Join(parts, " | ")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orUnknownInt(n *int) string {
	if n == nil {
		return "Unknown"
	}
	return strconv.Itoa(*n)
}

// ParseError reports input that could not be interpreted as its expected
// kind.
type ParseError struct {
	Kind   Kind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Kind, e.Reason)
}

// IsParseError checks if an error is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
