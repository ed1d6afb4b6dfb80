// Package cmd provides command-line interface functionality for GCN Recover.
// GCN Recover inspects GameCube memory card images and recovers save files
// that are no longer listed in the card directory.
package cmd

import (
	"os"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
// It provides the main entry point for the GCN Recover application.
var rootCmd = &cobra.Command{
	Use:   "gcnrecover",
	Short: "Recover lost files from GameCube memory card images",
	Long: `GCN Recover - Inspect GameCube memory card images and recover save
files whose directory entries were lost or corrupted.

Currently supports:
  - Card inspection (header, directory and block table copies)
  - Directory listings with manual active copy selection
  - Blank card image formatting
  - Signature database based lost file scanning

Examples:
  gcnrecover card info memcard.raw
  gcnrecover card files --dir B memcard.raw
  gcnrecover card format 4 blank.raw
  gcnrecover scan --db GcnMcFileDb.xml --output report.yaml memcard.raw
  gcnrecover db check GcnMcFileDb.xml

Use 'gcnrecover [command] --help' for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		common.SetVerboseMode(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// init initializes the root command with flags and configuration settings.
func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (show debug messages)")
}
