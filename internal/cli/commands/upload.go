package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/config"
	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/metadata"
	"github.com/gobis-cli/gobis/internal/openbis"
	"github.com/gobis-cli/gobis/internal/relation"
)

var (
	uploadTypeFlag        string
	uploadCollectionFlag  string
	uploadDatasetTypeFlag string
	uploadNameFlag        string
	uploadVersionFlag     string
	uploadLogFileFlag     string
	uploadNotesFlag       string
	uploadDryRunFlag      bool
	uploadLinkFlag        string
	uploadParentsFlag     []string
	uploadIgnoreParseFlag bool
)

// NewUploadCommand creates the upload command
func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file as a new dataset",
		Long: `Upload a file as a new dataset: detect what the file is, extract its
metadata, derive the dataset name and properties, transfer the bytes, and
register the dataset in its collection.

FASTA files are parsed for entry counts and species. Spectral libraries
read their generation log (--log-file) for the tool version, counts, and
the source database. After registration the parent link flow runs:
candidate parents are ranked HIGH, MEDIUM, or LOW and confirmed according
to --link.`,
		Example: `  # Upload a sequence database
  gobis upload uniprot_human_2024_01.fasta --version 2024_01

  # Upload a spectral library with its generation log
  gobis upload lib.predicted.speclib --log-file report.log.txt

  # Preview the registration and candidate parents, write nothing
  gobis upload uniprot_human_2024_01.fasta --dry-run

  # Link the HIGH-confidence parents without prompting
  gobis upload lib.predicted.speclib --log-file report.log.txt --link auto

  # Explicit parents, no matching
  gobis upload lib.predicted.speclib --parents 20240115103000123-287

  # Skip linking entirely
  gobis upload archive.bin --link skip`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	cmd.Flags().StringVarP(&uploadTypeFlag, "type", "t", "auto", "File kind: auto, fasta, or spectral-library")
	cmd.Flags().StringVarP(&uploadCollectionFlag, "collection", "c", "", "Destination collection (default per kind)")
	cmd.Flags().StringVar(&uploadDatasetTypeFlag, "dataset-type", "", "Dataset type code (default per kind)")
	cmd.Flags().StringVarP(&uploadNameFlag, "name", "n", "", "Dataset name (default derived from the file)")
	cmd.Flags().StringVar(&uploadVersionFlag, "version", "", "Database version identifier (FASTA only)")
	cmd.Flags().StringVar(&uploadLogFileFlag, "log-file", "", "Generation log to extract spectral library metadata from")
	cmd.Flags().StringVar(&uploadNotesFlag, "notes", "", "Free-text notes stored with the dataset")
	cmd.Flags().BoolVar(&uploadDryRunFlag, "dry-run", false, "Preview the upload and candidate parents without writing")
	cmd.Flags().StringVar(&uploadLinkFlag, "link", "interactive", "Link mode: interactive, auto, or skip")
	cmd.Flags().StringSliceVar(&uploadParentsFlag, "parents", nil, "Parent dataset ids to link directly (skips matching)")
	cmd.Flags().BoolVar(&uploadIgnoreParseFlag, "ignore-parse-errors", false, "Upload without metadata when extraction fails")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	successColor := color.New(color.FgGreen, color.Bold)

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if stat.IsDir() {
		return fmt.Errorf("%s is a directory; upload expects a single file", path)
	}

	kind, err := uploadKind(path, uploadTypeFlag)
	if err != nil {
		return err
	}

	mode, skipLink, err := uploadLinkMode()
	if err != nil {
		return err
	}

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	flow := relation.NewFlow()
	rec, err := extractRecord(path, kind)
	if err != nil {
		if !metadata.IsParseError(err) {
			return err
		}
		if !uploadIgnoreParseFlag {
			fmt.Print(ui.Warning(fmt.Sprintf("Metadata extraction failed: %v", err),
				[]string{"--ignore-parse-errors"}, sess.noColor))
			return fmt.Errorf("extracting metadata from %s: %w", path, err)
		}
		fmt.Print(ui.Warning(fmt.Sprintf("Uploading without metadata: %v", err), nil, sess.noColor))
		rec = nil
	}
	if err := flow.To(relation.StateMetadataExtracted); err != nil {
		return err
	}

	name := uploadName(rec, path)
	props := uploadProperties(rec, name, filepath.Base(path))
	datasetType := firstNonEmpty(uploadDatasetTypeFlag, kind.DatasetType())
	collection := firstNonEmpty(uploadCollectionFlag, sess.cfg.Upload.CollectionFor(string(kind)), kind.DefaultCollection())

	renderUploadPreview(os.Stdout, path, stat.Size(), kind, name, datasetType, collection, props, sess.noColor)

	if uploadDryRunFlag {
		candidates, err := suggestCandidates(ctx, sess, rec, kind)
		if err != nil {
			fmt.Print(ui.Warning(fmt.Sprintf("Parent matching failed: %v", err), nil, sess.noColor))
		} else if len(candidates) > 0 {
			ui.Header(os.Stdout, "Candidate parents", sess.noColor)
			renderCandidates(os.Stdout, candidates, sess.noColor)
			fmt.Println()
		} else if !skipLink {
			fmt.Print(ui.Info("No candidate parents found.", sess.noColor))
		}
		if len(uploadParentsFlag) > 0 {
			fmt.Print(ui.Info(fmt.Sprintf("Would link: %s", strings.Join(uploadParentsFlag, ", ")), sess.noColor))
		}
		fmt.Print(ui.Info("Dry run: nothing was uploaded.", sess.noColor))
		return nil
	}

	var datasetID string
	err = ui.WithSpinner(os.Stdout, fmt.Sprintf("Uploading %s", filepath.Base(path)), sess.noColor, func() error {
		var uploadErr error
		datasetID, uploadErr = sess.client.UploadDataSet(ctx, openbis.UploadRequest{
			Type:       datasetType,
			Collection: collection,
			Properties: props,
			Files:      []string{path},
		})
		return uploadErr
	})
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	successColor.Printf("✓ Registered dataset %s in %s\n", datasetID, collection)

	if skipLink {
		return nil
	}
	return runLinkFlow(ctx, sess, flow, datasetID, rec, kind, mode)
}

// uploadKind resolves the --type flag, falling back to extension detection
// for auto.
func uploadKind(path, flag string) (metadata.Kind, error) {
	switch flag {
	case "", "auto":
		return metadata.DetectKind(path), nil
	case "fasta":
		return metadata.KindFasta, nil
	case "spectral-library":
		return metadata.KindSpectralLibrary, nil
	default:
		options := []string{"auto", "fasta", "spectral-library"}
		if best := ui.FindBestMatch(flag, options, nil); best != "" {
			return metadata.KindUnknown, fmt.Errorf("unknown file kind %q (did you mean %q?)", flag, best)
		}
		return metadata.KindUnknown, fmt.Errorf("unknown file kind %q (expected auto, fasta, or spectral-library)", flag)
	}
}

// uploadLinkMode maps the --link and --parents flags onto a link mode.
// Explicit parents win over the mode flag.
func uploadLinkMode() (relation.Mode, bool, error) {
	if len(uploadParentsFlag) > 0 {
		return relation.Manual(uploadParentsFlag...), false, nil
	}
	switch uploadLinkFlag {
	case "", "interactive":
		return relation.Interactive(), false, nil
	case "auto":
		return relation.AutoHigh(), false, nil
	case "skip":
		return relation.Mode{}, true, nil
	default:
		options := []string{"interactive", "auto", "skip"}
		if best := ui.FindBestMatch(uploadLinkFlag, options, nil); best != "" {
			return relation.Mode{}, false, fmt.Errorf("unknown link mode %q (did you mean %q?)", uploadLinkFlag, best)
		}
		return relation.Mode{}, false, fmt.Errorf("unknown link mode %q (expected interactive, auto, or skip)", uploadLinkFlag)
	}
}

// extractRecord parses the metadata for the detected kind. A nil record with
// nil error means there is nothing to extract for this kind.
func extractRecord(path string, kind metadata.Kind) (metadata.Record, error) {
	switch kind {
	case metadata.KindFasta:
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		meta, err := metadata.ParseFasta(content)
		if err != nil {
			return nil, err
		}
		if uploadVersionFlag != "" {
			meta.Version = uploadVersionFlag
		}
		return meta, nil
	case metadata.KindSpectralLibrary:
		if uploadLogFileFlag == "" {
			return nil, nil
		}
		content, err := os.ReadFile(uploadLogFileFlag)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", uploadLogFileFlag, err)
		}
		return metadata.ParseGenerationLog(content), nil
	default:
		return nil, nil
	}
}

// uploadName resolves the dataset name: explicit flag, then the record's
// suggestion, then the file stem.
func uploadName(rec metadata.Record, path string) string {
	if uploadNameFlag != "" {
		return uploadNameFlag
	}
	filename := filepath.Base(path)
	switch m := rec.(type) {
	case metadata.FastaMetadata:
		return m.SuggestedName(filename)
	case metadata.SpectralLibraryMetadata:
		return m.SuggestedName(filename)
	default:
		return strings.TrimSuffix(filename, filepath.Ext(filename))
	}
}

// uploadProperties maps the record onto its dataset type's property schema
// and stamps the source filename, which later uploads match against.
func uploadProperties(rec metadata.Record, name, filename string) map[string]string {
	var props map[string]string
	switch m := rec.(type) {
	case metadata.FastaMetadata:
		props = m.Properties(name, uploadNotesFlag)
	case metadata.SpectralLibraryMetadata:
		props = m.Properties(name, uploadNotesFlag)
	default:
		props = map[string]string{"$name": name}
	}
	props["filename"] = filename
	return props
}

// renderUploadPreview shows what the upload would register.
func renderUploadPreview(w io.Writer, path string, size int64, kind metadata.Kind, name, datasetType, collection string, props map[string]string, noColor bool) {
	ui.Header(w, "Upload preview", noColor)
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("File", path)
	kv.AddRow("Size", humanize.Bytes(uint64(size)))
	kv.AddRow("Kind", string(kind))
	kv.AddRow("Dataset type", datasetType)
	kv.AddRow("Collection", collection)
	kv.AddRow("Name", name)
	kv.Render()

	if len(props) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Properties", noColor)
		pt := ui.NewKeyValueTable(w, noColor)
		for _, k := range sortedKeys(props) {
			pt.AddRow(k, props[k])
		}
		pt.Render()
	}
	fmt.Fprintln(w)
}

// runLinkFlow scores candidate parents (unless the mode carries explicit
// ids), then confirms and writes the links.
func runLinkFlow(ctx context.Context, sess *catalogSession, flow *relation.Flow, datasetID string, rec metadata.Record, kind metadata.Kind, mode relation.Mode) error {
	var candidates []relation.Candidate
	if mode.String() != "manual" {
		var err error
		candidates, err = suggestCandidates(ctx, sess, rec, kind)
		if err != nil {
			// The dataset is registered; a failed lookup only costs the links.
			fmt.Print(ui.Warning(fmt.Sprintf("Parent matching failed, no links written: %v", err),
				[]string{fmt.Sprintf("gobis link %s --suggest", datasetID)}, sess.noColor))
			return nil
		}
		if len(candidates) == 0 {
			fmt.Print(ui.Info("No candidate parents found.", sess.noColor))
		}
	}
	if err := flow.To(relation.StateCandidatesScored); err != nil {
		return err
	}

	linker := relation.NewLinker(sess.client,
		relation.WithPrompter(&surveyPrompter{out: os.Stdout, noColor: sess.noColor}),
		relation.WithLinkerLogger(debugLogger()))

	report, err := linker.ConfirmAndLink(ctx, flow, datasetID, candidates, mode)
	renderLinkReport(os.Stdout, datasetID, report, sess.noColor)
	if err != nil {
		return fmt.Errorf("linking parents of %s: %w", datasetID, err)
	}
	return nil
}

// suggestCandidates runs the matcher over the cached candidate pool of the
// record's parent collection.
func suggestCandidates(ctx context.Context, sess *catalogSession, rec metadata.Record, kind metadata.Kind) ([]relation.Candidate, error) {
	if rec == nil {
		return nil, nil
	}
	cache := relation.NewCache(
		relation.WithTTL(sess.cfg.Cache.TTL),
		relation.WithCacheLogger(debugLogger()))
	matcher := relation.NewMatcher(sess.client, cache,
		relation.WithPolicy(matchPolicy(sess.cfg)),
		relation.WithMatcherLogger(debugLogger()))
	return matcher.SuggestParents(ctx, rec, relation.ParentCollection(kind))
}

// matchPolicy maps the config thresholds onto the matcher policy.
func matchPolicy(cfg *config.Config) relation.Policy {
	return relation.Policy{
		MinTokenOverlap: cfg.Match.MinTokenOverlap,
		RecencyWindow:   cfg.Match.RecencyWindow,
		MaxPerTier:      cfg.Match.MaxPerTier,
		SearchLimit:     cfg.Match.SearchLimit,
	}
}
