package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/hansbonini/gcnrecover/pkg"
	"github.com/spf13/cobra"
)

var scanDir, scanBat *tableCopyFlag

// scanCmd searches unclaimed blocks for files described by a signature
// database.
var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Scan a memory card image for lost files",
	Long: `Scan a memory card image for files no longer listed in its directory.

Every block not used by a file of the active directory is tested against
the comment signatures of the database. Matches are printed and, with
--output, exported as a YAML report. Press Ctrl+C to stop the scan and
keep the files found so far.

Examples:
  gcnrecover scan --db GcnMcFileDb.xml memcard.raw
  gcnrecover scan --db GcnMcFileDb.yaml --output report.yaml --dir B memcard.raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _ := cmd.Flags().GetString("db")
		output, _ := cmd.Flags().GetString("output")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		opts := pkg.ScanOptions{
			Database: database,
			Output:   output,
			DirIndex: int(*scanDir),
			BATIndex: int(*scanBat),
		}

		processor := pkg.NewScanProcessor()
		if _, err := processor.Process(ctx, args[0], opts, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to scan card: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("db", "d", "", "Signature database (XML or YAML)")
	scanCmd.Flags().StringP("output", "o", "", "Write a YAML report to this file")
	scanDir, scanBat = addTableCopyFlags(scanCmd.Flags())
}
