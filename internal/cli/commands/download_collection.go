package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/openbis"
)

var (
	downloadCollectionOutputFlag   string
	downloadCollectionListOnlyFlag bool
	downloadCollectionLimitFlag    int
)

// NewDownloadCollectionCommand creates the download-collection command
func NewDownloadCollectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download-collection <collection-path>",
		Short: "Download every dataset of a collection",
		Long: `Enumerate the datasets registered under a collection and download them
one after another, each into its own directory named after the dataset
code. A dataset that fails is reported and the rest still download.`,
		Example: `  # Download the sequence database collection
  gobis download-collection /DDB/CK/FASTA --output ./fasta

  # See what would be fetched
  gobis download-collection /DDB/CK/FASTA --list-only

  # Cap the enumeration
  gobis download-collection /DDB/CK/FASTA --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: runDownloadCollection,
	}

	cmd.Flags().StringVarP(&downloadCollectionOutputFlag, "output", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&downloadCollectionListOnlyFlag, "list-only", false, "List datasets without downloading")
	cmd.Flags().IntVarP(&downloadCollectionLimitFlag, "limit", "l", 0, "Maximum datasets to fetch (0 = no limit)")

	return cmd
}

func runDownloadCollection(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	collection := args[0]

	infoColor := color.New(color.FgCyan)
	successColor := color.New(color.FgGreen, color.Bold)
	warningColor := color.New(color.FgYellow, color.Bold)

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	entries, err := sess.client.SearchByProperty(ctx, openbis.TypeDataset, "", "", openbis.Filters{
		Collection: collection,
		Limit:      downloadCollectionLimitFlag,
	})
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return fmt.Errorf("listing datasets of %s: %w", collection, err)
	}
	if len(entries) == 0 {
		fmt.Print(ui.Info(fmt.Sprintf("Collection %s has no datasets.", collection), sess.noColor))
		return nil
	}

	if downloadCollectionListOnlyFlag {
		ui.Header(os.Stdout, fmt.Sprintf("Datasets in %s", collection), sess.noColor)
		table := ui.NewTable(os.Stdout, []string{"ID", "NAME", "REGISTERED"}, sess.noColor)
		for _, e := range entries {
			table.AddRow(e.ID, e.Property("$name"), formatRegistered(e.Registered))
		}
		table.Render()
		fmt.Printf("\n%d datasets\n", len(entries))
		return nil
	}

	infoColor.Printf("Downloading %d datasets from %s\n\n", len(entries), collection)

	var written int64
	var failedIDs []string
	for _, e := range entries {
		files, err := sess.client.ListFiles(ctx, e.ID)
		if err != nil {
			warningColor.Printf("⚠ %s: %v\n", e.ID, err)
			failedIDs = append(failedIDs, e.ID)
			continue
		}
		n, err := downloadFiles(ctx, sess, e.ID, files, filepath.Join(downloadCollectionOutputFlag, e.ID))
		written += n
		if err != nil {
			warningColor.Printf("⚠ %s: %v\n", e.ID, err)
			failedIDs = append(failedIDs, e.ID)
			continue
		}
	}

	succeeded := len(entries) - len(failedIDs)
	fmt.Println()
	successColor.Printf("✓ Downloaded %d of %d datasets (%s) to %s\n",
		succeeded, len(entries), humanize.Bytes(uint64(written)), downloadCollectionOutputFlag)
	if len(failedIDs) > 0 {
		warningColor.Printf("⚠ Failed: %s\n", strings.Join(failedIDs, ", "))
		return fmt.Errorf("%d of %d datasets failed", len(failedIDs), len(entries))
	}
	return nil
}
