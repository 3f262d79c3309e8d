package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/openbis"
)

var (
	downloadOutputFlag   string
	downloadListOnlyFlag bool
)

// NewDownloadCommand creates the download command
func NewDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <dataset-code>",
		Short: "Download the files of a dataset",
		Long: `Download every file of a dataset through the data-store endpoint,
preserving the dataset's directory layout under the output directory.

With --list-only the file inventory is printed and nothing is written.`,
		Example: `  # Download into the current directory
  gobis download 20240115103000123-287

  # Download into a target directory
  gobis download 20240115103000123-287 --output ./data

  # Inspect the inventory first
  gobis download 20240115103000123-287 --list-only`,
		Args: cobra.ExactArgs(1),
		RunE: runDownload,
	}

	cmd.Flags().StringVarP(&downloadOutputFlag, "output", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&downloadListOnlyFlag, "list-only", false, "List files without downloading")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	datasetID := args[0]

	successColor := color.New(color.FgGreen, color.Bold)

	sess, err := newCatalogSession(ctx, "")
	if err != nil {
		return err
	}

	files, err := sess.client.ListFiles(ctx, datasetID)
	if err != nil {
		if openbis.IsNotFound(err) {
			fmt.Print(ui.DatasetNotFoundError(datasetID, nil, sess.noColor))
		} else {
			renderCatalogError(err, sess.serverURL, sess.noColor)
		}
		return fmt.Errorf("listing files of %s: %w", datasetID, err)
	}
	if len(files) == 0 {
		fmt.Print(ui.Info(fmt.Sprintf("Dataset %s has no files.", datasetID), sess.noColor))
		return nil
	}

	if downloadListOnlyFlag {
		renderFileList(os.Stdout, fmt.Sprintf("Files of %s", datasetID), files, sess.noColor)
		return nil
	}

	written, err := downloadFiles(ctx, sess, datasetID, files, downloadOutputFlag)
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return err
	}

	successColor.Printf("✓ Downloaded %d files (%s) to %s\n", len(files), humanize.Bytes(uint64(written)), downloadOutputFlag)
	return nil
}

// downloadFiles streams every file of one dataset into outDir, keeping the
// dataset's directory layout, and returns the total bytes written. The first
// failing file aborts the rest.
func downloadFiles(ctx context.Context, sess *catalogSession, datasetID string, files []openbis.DataSetFile, outDir string) (int64, error) {
	var written int64
	for _, f := range files {
		target := filepath.Join(outDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		out, err := os.Create(target)
		if err != nil {
			return written, fmt.Errorf("creating %s: %w", target, err)
		}

		progress := ui.NewTransferProgress(os.Stdout, f.Path, f.Size, sess.noColor)
		n, err := sess.client.DownloadFile(ctx, datasetID, f.Path, io.MultiWriter(out, progress))
		written += n
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", target, cerr)
		}
		if err != nil {
			fmt.Println()
			return written, fmt.Errorf("downloading %s: %w", f.Path, err)
		}
		progress.Finish()
	}
	return written, nil
}

// renderFileList prints a dataset's file inventory with humanized sizes.
func renderFileList(w io.Writer, title string, files []openbis.DataSetFile, noColor bool) {
	ui.Header(w, title, noColor)
	table := ui.NewTable(w, []string{"PATH", "SIZE"}, noColor)
	var total int64
	for _, f := range files {
		table.AddRow(f.Path, humanize.Bytes(uint64(f.Size)))
		total += f.Size
	}
	table.Render()
	fmt.Fprintf(w, "\n%d files, %s total\n", len(files), humanize.Bytes(uint64(total)))
}
