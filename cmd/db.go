package cmd

import (
	"fmt"

	"github.com/hansbonini/gcnrecover/pkg"
	"github.com/spf13/cobra"
)

// dbCmd represents the parent command for signature database operations.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Work with signature databases",
	Long: `Work with the signature databases used by the scan command.

Commands:
  check     Load a database and report its contents and problems

Example:
  gcnrecover db check GcnMcFileDb.xml`,
}

// dbCheckCmd loads a database and prints its index and warnings.
var dbCheckCmd = &cobra.Command{
	Use:   "check [database]",
	Short: "Validate a signature database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := pkg.NewDatabaseProcessor()
		if err := processor.Check(args[0], cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to check database: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
}
