package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/openbis"
)

var (
	infoSpacesFlag  bool
	infoDatasetFlag string
	infoSampleFlag  string
)

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show details for spaces, datasets, and samples",
		Long: `Show detail views from the catalog: the spaces visible to the account,
or the properties, files, and related datasets of one entry.`,
		Example: `  # List all spaces
  gobis info --spaces

  # Inspect a dataset: properties, files, parents, children
  gobis info --dataset 20240115103000123-287

  # Inspect a sample
  gobis info --sample /DDB/CK/SAMPLE-1`,
		RunE: runInfo,
	}

	cmd.Flags().BoolVar(&infoSpacesFlag, "spaces", false, "List spaces")
	cmd.Flags().StringVar(&infoDatasetFlag, "dataset", "", "Show one dataset")
	cmd.Flags().StringVar(&infoSampleFlag, "sample", "", "Show one sample")

	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	selectors := 0
	if infoSpacesFlag {
		selectors++
	}
	if infoDatasetFlag != "" {
		selectors++
	}
	if infoSampleFlag != "" {
		selectors++
	}
	if selectors != 1 {
		return fmt.Errorf(`exactly one of --spaces, --dataset, or --sample is required

Usage:
  gobis info --spaces
  gobis info --dataset <code>
  gobis info --sample <code>`)
	}

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	switch {
	case infoSpacesFlag:
		return showSpaces(ctx, sess)
	case infoDatasetFlag != "":
		return showDataset(ctx, sess, infoDatasetFlag)
	default:
		return showSample(ctx, sess, infoSampleFlag)
	}
}

func showSpaces(ctx context.Context, sess *catalogSession) error {
	spaces, err := sess.client.ListSpaces(ctx)
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return fmt.Errorf("listing spaces: %w", err)
	}

	ui.Header(os.Stdout, "Spaces", sess.noColor)
	table := ui.NewTable(os.Stdout, []string{"CODE", "DESCRIPTION", "PROJECTS"}, sess.noColor)
	for _, sp := range spaces {
		table.AddRow(sp.Code, sp.Description, strconv.Itoa(sp.Projects))
	}
	table.Render()
	fmt.Printf("\nFound %d spaces\n", len(spaces))
	return nil
}

func showDataset(ctx context.Context, sess *catalogSession, id string) error {
	entry, err := sess.client.GetEntry(ctx, openbis.TypeDataset, id)
	if err != nil {
		if openbis.IsNotFound(err) {
			fmt.Print(ui.DatasetNotFoundError(id, nil, sess.noColor))
		} else {
			renderCatalogError(err, sess.serverURL, sess.noColor)
		}
		return fmt.Errorf("fetching dataset %s: %w", id, err)
	}

	renderEntry(os.Stdout, entry, sess.noColor)

	files, err := sess.client.ListFiles(ctx, id)
	switch {
	case err != nil:
		fmt.Print(ui.Warning(fmt.Sprintf("Loading files failed: %v", err), nil, sess.noColor))
	case len(files) > 0:
		renderFileList(os.Stdout, "Files", files, sess.noColor)
		fmt.Println()
	}

	renderRelated(ctx, sess, id)
	return nil
}

func showSample(ctx context.Context, sess *catalogSession, id string) error {
	entry, err := sess.client.GetEntry(ctx, openbis.TypeSample, id)
	if err != nil {
		if openbis.IsNotFound(err) {
			ui.WriteError(os.Stdout, ui.ErrorOptions{
				Level:   ui.ErrorLevelError,
				Context: "SAMPLE NOT FOUND",
				Problem: fmt.Sprintf("Cannot find sample '%s'.", id),
				HelpCommands: []string{
					"Search samples: gobis search <code> --type samples",
				},
				NoColor: sess.noColor,
			})
		} else {
			renderCatalogError(err, sess.serverURL, sess.noColor)
		}
		return fmt.Errorf("fetching sample %s: %w", id, err)
	}

	renderEntry(os.Stdout, entry, sess.noColor)
	return nil
}

// renderEntry prints the identity block and the property set of one entry.
func renderEntry(w io.Writer, e openbis.CatalogEntry, noColor bool) {
	ui.Header(w, e.ID, noColor)
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Type", string(e.Type))
	if name := e.Property("$name"); name != "" {
		kv.AddRow("Name", name)
	}
	if e.Collection != "" {
		kv.AddRow("Collection", e.Collection)
	}
	if !e.Registered.IsZero() {
		kv.AddRow("Registered", formatRegistered(e.Registered))
	}
	kv.Render()

	if len(e.Properties) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Properties", noColor)
		props := ui.NewKeyValueTable(w, noColor)
		for _, k := range sortedKeys(e.Properties) {
			props.AddRow(k, e.Properties[k])
		}
		props.Render()
	}
	fmt.Fprintln(w)
}

// renderRelated shows parents and children. Either lookup failing is only a
// warning; the detail view itself already rendered.
func renderRelated(ctx context.Context, sess *catalogSession, id string) {
	parents, err := sess.client.GetParents(ctx, id)
	if err != nil {
		fmt.Print(ui.Warning(fmt.Sprintf("Loading parents failed: %v", err), nil, sess.noColor))
	} else {
		renderRelatedSection(os.Stdout, "Parents", parents, sess.noColor)
	}

	children, err := sess.client.GetChildren(ctx, id)
	if err != nil {
		fmt.Print(ui.Warning(fmt.Sprintf("Loading children failed: %v", err), nil, sess.noColor))
	} else {
		renderRelatedSection(os.Stdout, "Children", children, sess.noColor)
	}
}

func renderRelatedSection(w io.Writer, title string, entries []openbis.CatalogEntry, noColor bool) {
	if len(entries) == 0 {
		return
	}
	section := ui.NewSection(w, title, noColor)
	for _, e := range entries {
		line := e.ID
		if name := e.Property("$name"); name != "" {
			line += "  " + name
		}
		section.AddLine(line)
	}
	section.Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
