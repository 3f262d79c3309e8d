package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	debugFlag   bool
	noColorFlag bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gobis",
		Short: "Command-line client for openBIS-style data catalogs",
		Long: color.CyanString(`gobis - Laboratory Data Catalog Client

gobis talks to an openBIS-compatible data catalog: upload sequence
databases and spectral libraries, search and download datasets, and keep
dataset provenance linked.

Features:
  • FASTA and DIA-NN log metadata extraction on upload
  • Ranked parent suggestions (HIGH / MEDIUM / LOW confidence)
  • Interactive, automatic, and dry-run link confirmation
  • Streaming dataset download with per-file progress
  • Cached catalog lookups within one invocation`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColorFlag {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewConnectCommand())
	rootCmd.AddCommand(NewSearchCommand())
	rootCmd.AddCommand(NewDownloadCommand())
	rootCmd.AddCommand(NewDownloadCollectionCommand())
	rootCmd.AddCommand(NewInfoCommand())
	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewLinkCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the gobis version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Print("gobis version: ")
			valueColor.Println(Version)

			titleColor.Print("Git commit: ")
			valueColor.Println(GitCommit)

			titleColor.Print("Build date: ")
			valueColor.Println(BuildDate)

			titleColor.Print("Go version: ")
			valueColor.Println(goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
