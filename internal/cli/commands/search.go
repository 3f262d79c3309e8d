package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/openbis"
)

var (
	searchTypeFlag     string
	searchLimitFlag    int
	searchPropertyFlag string
)

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog for matching entries",
		Long: `Search experiments, samples, and datasets whose code or property value
matches the query. The query is wrapped in wildcards unless it already
contains one, so partial identifiers match.

A section that fails to search is reported as a warning; the remaining
sections still render.`,
		Example: `  # Search everything for a code fragment
  gobis search FASTA

  # Search datasets only
  gobis search 20240115 --type datasets

  # Search by a property instead of the code
  gobis search 'Homo sapiens' --property '$name'

  # Allow up to 50 rows per section
  gobis search FASTA --limit 50`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVarP(&searchTypeFlag, "type", "t", "all", "Entry type: experiments, samples, datasets, or all")
	cmd.Flags().IntVarP(&searchLimitFlag, "limit", "l", 20, "Maximum results per section")
	cmd.Flags().StringVarP(&searchPropertyFlag, "property", "p", "code", "Property to match the query against")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]

	infoColor := color.New(color.FgCyan)

	types, err := searchTypes(searchTypeFlag)
	if err != nil {
		return err
	}

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	value := wildcardQuery(query)
	total := 0
	var failures []error
	for _, typ := range types {
		entries, err := sess.client.SearchByProperty(ctx, typ, searchPropertyFlag, value, openbis.Filters{Limit: searchLimitFlag})
		if err != nil {
			failures = append(failures, err)
			fmt.Print(ui.Warning(fmt.Sprintf("Searching %s failed: %v", sectionTitle(typ), err), nil, sess.noColor))
			continue
		}
		total += len(entries)
		renderSearchSection(os.Stdout, typ, entries, sess.noColor)
	}

	if len(failures) == len(types) {
		renderCatalogError(failures[0], sess.serverURL, sess.noColor)
		return fmt.Errorf("search failed for every section: %w", failures[0])
	}

	infoColor.Printf("Found %d matching entries for %q\n", total, query)
	return nil
}

// searchTypes expands the --type flag into the sections to query.
func searchTypes(flag string) ([]openbis.EntryType, error) {
	switch strings.ToLower(flag) {
	case "", "all":
		return []openbis.EntryType{openbis.TypeExperiment, openbis.TypeSample, openbis.TypeDataset}, nil
	case "experiment", "experiments":
		return []openbis.EntryType{openbis.TypeExperiment}, nil
	case "sample", "samples":
		return []openbis.EntryType{openbis.TypeSample}, nil
	case "dataset", "datasets":
		return []openbis.EntryType{openbis.TypeDataset}, nil
	default:
		options := []string{"experiments", "samples", "datasets", "all"}
		if best := ui.FindBestMatch(flag, options, nil); best != "" {
			return nil, fmt.Errorf("unknown entry type %q (did you mean %q?)", flag, best)
		}
		return nil, fmt.Errorf("unknown entry type %q (expected experiments, samples, datasets, or all)", flag)
	}
}

// wildcardQuery wraps the query in wildcards unless the caller already used
// one.
func wildcardQuery(q string) string {
	if strings.Contains(q, "*") {
		return q
	}
	return "*" + q + "*"
}

func sectionTitle(typ openbis.EntryType) string {
	switch typ {
	case openbis.TypeExperiment:
		return "Experiments"
	case openbis.TypeSample:
		return "Samples"
	case openbis.TypeDataset:
		return "Datasets"
	default:
		return string(typ)
	}
}

func renderSearchSection(w io.Writer, typ openbis.EntryType, entries []openbis.CatalogEntry, noColor bool) {
	ui.Header(w, sectionTitle(typ), noColor)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No matches")
		fmt.Fprintln(w)
		return
	}

	table := ui.NewTable(w, []string{"ID", "NAME", "COLLECTION", "REGISTERED"}, noColor)
	for _, e := range entries {
		table.AddRow(e.ID, e.Property("$name"), e.Collection, formatRegistered(e.Registered))
	}
	table.Render()
	fmt.Fprintln(w)
}

func formatRegistered(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
