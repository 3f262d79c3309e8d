package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/ui"
)

var (
	connectVerboseFlag bool
	connectServerFlag  string
)

// NewConnectCommand creates the connect command
func NewConnectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Authenticate against the catalog server",
		Long: `Authenticate against the catalog server and cache the session token.

A token cached by a previous run is tried first. When it is missing or
expired, gobis logs in with the credentials from ~/.gobis/credentials or
the GOBIS_USERNAME and GOBIS_PASSWORD environment variables, prompting
for anything absent, and saves the fresh token to ~/.gobis/token.`,
		Example: `  # Connect with cached token or stored credentials
  gobis connect

  # Connect to an explicit server
  gobis connect --server https://openbis.example.org

  # List every space visible to the account
  gobis connect --verbose`,
		RunE: runConnect,
	}

	cmd.Flags().BoolVarP(&connectVerboseFlag, "verbose", "v", false, "List spaces with descriptions")
	cmd.Flags().StringVar(&connectServerFlag, "server", "", "Catalog server URL (overrides credentials and config)")

	return cmd
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	sess, err := newCatalogSession(ctx, connectServerFlag)
	if err != nil {
		return err
	}

	spaces, err := sess.client.ListSpaces(ctx)
	if err != nil {
		renderCatalogError(err, sess.serverURL, sess.noColor)
		return fmt.Errorf("listing spaces: %w", err)
	}

	successColor.Printf("✓ Connected to %s\n", sess.serverURL)
	infoColor.Printf("Found %d spaces\n", len(spaces))

	if connectVerboseFlag && len(spaces) > 0 {
		fmt.Println()
		table := ui.NewTable(os.Stdout, []string{"CODE", "DESCRIPTION", "PROJECTS"}, sess.noColor)
		for _, sp := range spaces {
			table.AddRow(sp.Code, sp.Description, strconv.Itoa(sp.Projects))
		}
		table.Render()
	}
	return nil
}
