package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/metadata"
	"github.com/gobis-cli/gobis/internal/openbis"
	"github.com/gobis-cli/gobis/internal/relation"
)

var (
	linkParentsFlag []string
	linkSuggestFlag bool
	linkDryRunFlag  bool
)

// NewLinkCommand creates the link command
func NewLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <dataset-id>",
		Short: "Link parent datasets to a registered dataset",
		Long: `Link parent datasets to a registered dataset, establishing provenance
between a derived dataset and what it was derived from.

With --parents the given ids are linked directly. With --suggest the
dataset's stored properties are matched against its parent collection and
candidates are ranked HIGH, MEDIUM, or LOW for interactive selection.
Links are written one parent at a time and the batch stops at the first
failure.`,
		Example: `  # Link explicit parents
  gobis link 20240116120000456-301 --parents 20240115103000123-287

  # Rank candidates from stored properties, then choose
  gobis link 20240116120000456-301 --suggest

  # Show the ranked candidates without writing anything
  gobis link 20240116120000456-301 --suggest --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runLink,
	}

	cmd.Flags().StringSliceVar(&linkParentsFlag, "parents", nil, "Parent dataset ids to link directly")
	cmd.Flags().BoolVar(&linkSuggestFlag, "suggest", false, "Rank candidate parents from the dataset's stored properties")
	cmd.Flags().BoolVar(&linkDryRunFlag, "dry-run", false, "Show what would be linked without writing")

	return cmd
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	datasetID := args[0]

	if len(linkParentsFlag) == 0 && !linkSuggestFlag {
		return fmt.Errorf("link needs --parents or --suggest")
	}
	if len(linkParentsFlag) > 0 && linkSuggestFlag {
		return fmt.Errorf("--parents and --suggest are mutually exclusive")
	}

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	entry, err := sess.client.GetEntry(ctx, openbis.TypeDataset, datasetID)
	if err != nil {
		if openbis.IsNotFound(err) {
			fmt.Print(ui.DatasetNotFoundError(datasetID, nil, sess.noColor))
		} else {
			renderCatalogError(err, sess.serverURL, sess.noColor)
		}
		return fmt.Errorf("resolving dataset %s: %w", datasetID, err)
	}

	if len(linkParentsFlag) > 0 {
		return linkManual(ctx, sess, entry.ID)
	}
	return linkSuggested(ctx, sess, entry)
}

// linkManual writes the explicitly given parents without matching.
func linkManual(ctx context.Context, sess *catalogSession, datasetID string) error {
	if linkDryRunFlag {
		fmt.Print(ui.Info(fmt.Sprintf("Would link %s as parents of %s.",
			strings.Join(linkParentsFlag, ", "), datasetID), sess.noColor))
		return nil
	}

	linker := relation.NewLinker(sess.client, relation.WithLinkerLogger(debugLogger()))
	report, err := linker.ConfirmAndLink(ctx, nil, datasetID, nil, relation.Manual(linkParentsFlag...))
	renderLinkReport(os.Stdout, datasetID, report, sess.noColor)
	if err != nil {
		return fmt.Errorf("linking parents of %s: %w", datasetID, err)
	}
	return nil
}

// linkSuggested rebuilds a metadata record from the dataset's stored
// properties, ranks candidates against it, and confirms per the flags.
func linkSuggested(ctx context.Context, sess *catalogSession, entry openbis.CatalogEntry) error {
	rec, err := recordFromEntry(entry)
	if err != nil {
		return err
	}

	candidates, err := suggestCandidates(ctx, sess, rec, rec.Kind())
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return fmt.Errorf("matching parents for %s: %w", entry.ID, err)
	}
	if len(candidates) == 0 {
		fmt.Print(ui.Info("No candidate parents found.", sess.noColor))
		return nil
	}

	mode := relation.Interactive()
	if linkDryRunFlag {
		mode = relation.DryRun()
	}

	linker := relation.NewLinker(sess.client,
		relation.WithPrompter(&surveyPrompter{out: os.Stdout, noColor: sess.noColor}),
		relation.WithLinkerLogger(debugLogger()))
	report, err := linker.ConfirmAndLink(ctx, nil, entry.ID, candidates, mode)
	if err != nil {
		renderLinkReport(os.Stdout, entry.ID, report, sess.noColor)
		return fmt.Errorf("linking parents of %s: %w", entry.ID, err)
	}

	if linkDryRunFlag {
		ui.Header(os.Stdout, "Candidate parents", sess.noColor)
		renderCandidates(os.Stdout, report.Selected, sess.noColor)
		fmt.Println()
		fmt.Print(ui.Info("Dry run: no links were written.", sess.noColor))
		return nil
	}
	renderLinkReport(os.Stdout, entry.ID, report, sess.noColor)
	return nil
}

// recordFromEntry rebuilds a matchable metadata record from a dataset's
// stored properties, for datasets registered in an earlier session. Spectral
// library fields come back out of the structured notes they were written to.
func recordFromEntry(e openbis.CatalogEntry) (metadata.Record, error) {
	notes := e.Property("notes")
	if e.Property("n_proteins") != "" || e.Property("n_peptides") != "" || strings.Contains(notes, "DIA-NN version:") {
		rec := metadata.SpectralLibraryMetadata{}
		for _, part := range strings.Split(notes, " | ") {
			if v, ok := strings.CutPrefix(part, "FASTA: "); ok && v != "Unknown" {
				rec.SourceFasta = v
			}
			if v, ok := strings.CutPrefix(part, "DIA-NN version: "); ok && v != "Unknown" {
				rec.ToolVersion = v
			}
		}
		return rec, nil
	}
	if version := e.Property("version"); version != "" {
		return metadata.FastaMetadata{
			Version:        version,
			PrimarySpecies: primarySpeciesFromName(e.Property("$name")),
		}, nil
	}
	return nil, fmt.Errorf("dataset %s has no properties to match on (expected version, n_proteins, or DIA-NN notes)", e.ID)
}

// primarySpeciesFromName pulls the parenthesized species out of a display
// name like "uniprot_human_2024_01 (Homo sapiens)".
func primarySpeciesFromName(name string) string {
	start := strings.LastIndex(name, "(")
	end := strings.LastIndex(name, ")")
	if start < 0 || end <= start {
		return ""
	}
	return name[start+1 : end]
}
