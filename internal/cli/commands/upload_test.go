package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gobis-cli/gobis/internal/cli/config"
	"github.com/gobis-cli/gobis/internal/metadata"
)

func TestNewUploadCommand_Flags(t *testing.T) {
	cmd := NewUploadCommand()

	if cmd.Use != "upload <file>" {
		t.Errorf("expected Use to be 'upload <file>', got %s", cmd.Use)
	}

	expectedFlags := []string{
		"type",
		"collection",
		"dataset-type",
		"name",
		"version",
		"log-file",
		"notes",
		"dry-run",
		"link",
		"parents",
		"ignore-parse-errors",
	}

	for _, flag := range expectedFlags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
}

func TestUploadKind(t *testing.T) {
	testCases := []struct {
		name        string
		path        string
		flag        string
		expected    metadata.Kind
		expectError bool
		errSubstr   string
	}{
		{name: "auto detects fasta", path: "uniprot_human.fasta", flag: "auto", expected: metadata.KindFasta},
		{name: "auto detects spectral library", path: "lib.predicted.speclib", flag: "auto", expected: metadata.KindSpectralLibrary},
		{name: "empty flag means auto", path: "archive.bin", flag: "", expected: metadata.KindUnknown},
		{name: "explicit fasta overrides extension", path: "db.txt", flag: "fasta", expected: metadata.KindFasta},
		{name: "explicit spectral library", path: "db.txt", flag: "spectral-library", expected: metadata.KindSpectralLibrary},
		{name: "typo suggests correction", path: "db.txt", flag: "fsta", expectError: true, errSubstr: `did you mean "fasta"`},
		{name: "no close match lists options", path: "db.txt", flag: "qqqqqqqqqq", expectError: true, errSubstr: "expected auto, fasta, or spectral-library"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := uploadKind(tc.path, tc.flag)

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
			if kind != tc.expected {
				t.Errorf("expected kind %s, got %s", tc.expected, kind)
			}
		})
	}
}

func TestUploadLinkMode(t *testing.T) {
	defer func() {
		uploadLinkFlag = "interactive"
		uploadParentsFlag = nil
	}()

	testCases := []struct {
		name         string
		linkFlag     string
		parents      []string
		expectedMode string
		expectSkip   bool
		expectError  bool
		errSubstr    string
	}{
		{name: "default interactive", linkFlag: "interactive", expectedMode: "interactive"},
		{name: "empty means interactive", linkFlag: "", expectedMode: "interactive"},
		{name: "auto links high tier", linkFlag: "auto", expectedMode: "auto-high"},
		{name: "skip", linkFlag: "skip", expectSkip: true},
		{name: "explicit parents win", linkFlag: "auto", parents: []string{"DS-1"}, expectedMode: "manual"},
		{name: "typo suggests correction", linkFlag: "interactve", expectError: true, errSubstr: `did you mean "interactive"`},
		{name: "no close match lists options", linkFlag: "qqqqqqqqqq", expectError: true, errSubstr: "expected interactive, auto, or skip"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uploadLinkFlag = tc.linkFlag
			uploadParentsFlag = tc.parents

			mode, skip, err := uploadLinkMode()

			if tc.expectError {
				if err == nil {
					t.Fatalf("expected error for link flag %q", tc.linkFlag)
				}
				if !strings.Contains(err.Error(), tc.errSubstr) {
					t.Errorf("expected error to contain %q, got %q", tc.errSubstr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if skip != tc.expectSkip {
				t.Errorf("expected skip=%v, got %v", tc.expectSkip, skip)
			}
			if !tc.expectSkip && mode.String() != tc.expectedMode {
				t.Errorf("expected mode %q, got %q", tc.expectedMode, mode.String())
			}
		})
	}
}

func TestUploadName(t *testing.T) {
	old := uploadNameFlag
	defer func() { uploadNameFlag = old }()

	uploadNameFlag = "explicit"
	if got := uploadName(nil, "archive.bin"); got != "explicit" {
		t.Errorf("expected explicit name to win, got %q", got)
	}

	uploadNameFlag = ""
	if got := uploadName(nil, "dir/archive.bin"); got != "archive" {
		t.Errorf("expected file stem for unknown files, got %q", got)
	}

	rec := metadata.FastaMetadata{Version: "2024_01", PrimarySpecies: "Homo sapiens"}
	if got := uploadName(rec, "uniprot_human.fasta"); got != "uniprot_human v2024_01 (Homo sapiens)" {
		t.Errorf("unexpected derived name: %q", got)
	}
}

func TestUploadProperties(t *testing.T) {
	old := uploadNotesFlag
	defer func() { uploadNotesFlag = old }()
	uploadNotesFlag = ""

	props := uploadProperties(nil, "archive", "archive.bin")
	if props["$name"] != "archive" {
		t.Errorf("expected $name property for unknown files, got %v", props)
	}
	if props["filename"] != "archive.bin" {
		t.Errorf("expected filename to be stamped, got %v", props)
	}
	if len(props) != 2 {
		t.Errorf("expected only $name and filename for unknown files, got %v", props)
	}

	rec := metadata.FastaMetadata{Version: "2024_01"}
	props = uploadProperties(rec, "uniprot v2024_01", "uniprot.fasta")
	if props["$name"] != "uniprot v2024_01" {
		t.Errorf("expected $name to carry the display name, got %v", props)
	}
	if props["version"] != "2024_01" {
		t.Errorf("expected version property, got %v", props)
	}
	if props["filename"] != "uniprot.fasta" {
		t.Errorf("expected filename to be stamped, got %v", props)
	}
}

func TestExtractRecord_Fasta(t *testing.T) {
	old := uploadVersionFlag
	defer func() { uploadVersionFlag = old }()
	uploadVersionFlag = "2024_01"

	dir := t.TempDir()
	path := filepath.Join(dir, "db.fasta")
	content := ">sp|P12345|TEST_HUMAN Test protein OS=Homo sapiens OX=9606\nMKLV\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := extractRecord(path, metadata.KindFasta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, ok := rec.(metadata.FastaMetadata)
	if !ok {
		t.Fatalf("expected FastaMetadata, got %T", rec)
	}
	if meta.EntryCount != 1 {
		t.Errorf("expected 1 entry, got %d", meta.EntryCount)
	}
	if meta.Version != "2024_01" {
		t.Errorf("expected version flag to be applied, got %q", meta.Version)
	}
}

func TestExtractRecord_SpectralLibraryWithoutLog(t *testing.T) {
	old := uploadLogFileFlag
	defer func() { uploadLogFileFlag = old }()
	uploadLogFileFlag = ""

	rec, err := extractRecord("lib.predicted.speclib", metadata.KindSpectralLibrary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record without a log file, got %v", rec)
	}
}

func TestExtractRecord_UnknownKind(t *testing.T) {
	rec, err := extractRecord("archive.bin", metadata.KindUnknown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record for unknown files, got %v", rec)
	}
}

func TestMatchPolicy(t *testing.T) {
	cfg := &config.Config{
		Match: config.MatchConfig{
			MinTokenOverlap: 3,
			RecencyWindow:   24 * time.Hour,
			MaxPerTier:      5,
			SearchLimit:     100,
		},
	}

	policy := matchPolicy(cfg)

	if policy.MinTokenOverlap != 3 {
		t.Errorf("expected MinTokenOverlap 3, got %d", policy.MinTokenOverlap)
	}
	if policy.RecencyWindow != 24*time.Hour {
		t.Errorf("expected RecencyWindow 24h, got %v", policy.RecencyWindow)
	}
	if policy.MaxPerTier != 5 {
		t.Errorf("expected MaxPerTier 5, got %d", policy.MaxPerTier)
	}
	if policy.SearchLimit != 100 {
		t.Errorf("expected SearchLimit 100, got %d", policy.SearchLimit)
	}
}
