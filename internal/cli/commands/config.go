package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobis-cli/gobis/internal/cli/config"
	"github.com/gobis-cli/gobis/internal/cli/ui"
)

// NewConfigCommand creates the config command with its subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit gobis configuration",
		Long: `Inspect and edit gobis configuration.

Settings merge from defaults, gobis.yaml in the working directory, the
per-user config file, and GOBIS_* environment variables. Edits are
written to the per-user file.`,
		Example: `  # Show every effective setting
  gobis config list

  # Read one key
  gobis config get server.url

  # Point gobis at a catalog server
  gobis config set server.url https://openbis.example.org`,
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigListCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == nil {
		keys, err := config.Keys()
		if err != nil {
			return err
		}
		suggestions := ui.FindSimilar(key, keys, nil)
		fmt.Print(ui.ConfigError(fmt.Sprintf("Unknown config key '%s'.", key), suggestions, noColorFlag))
		return fmt.Errorf("unknown config key %q", key)
	}

	fmt.Printf("%v\n", value)
	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one configuration value to the per-user config file",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	successColor := color.New(color.FgGreen, color.Bold)

	if err := config.Set(key, value); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	path, err := config.UserPath()
	if err != nil {
		return err
	}
	successColor.Printf("✓ Set %s = %s in %s\n", key, value, path)

	// A bad value is still written; surface it now rather than on next run.
	if _, err := config.Load(); err != nil {
		fmt.Print(ui.Warning(fmt.Sprintf("Effective configuration does not validate: %v", err), nil, noColorFlag))
	}
	return nil
}

func newConfigListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"show"},
		Short:   "Show every effective configuration value",
		RunE:    runConfigList,
	}
}

func runConfigList(cmd *cobra.Command, args []string) error {
	settings, err := config.List()
	if err != nil {
		return err
	}

	flat := map[string]string{}
	flattenSettings("", settings, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := ui.NewKeyValueTable(os.Stdout, noColorFlag)
	for _, k := range keys {
		table.AddRow(k, flat[k])
	}
	table.Render()
	return nil
}

// flattenSettings flattens the nested settings map into dotted keys. File
// sources nest as map[string]any; defaults may carry map[string]string.
func flattenSettings(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flattenSettings(key, nested, out)
		case map[string]string:
			for nk, nv := range nested {
				out[key+"."+nk] = nv
			}
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
}
