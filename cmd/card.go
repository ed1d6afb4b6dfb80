package cmd

import (
	"fmt"

	"github.com/hansbonini/gcnrecover/pkg"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
	"github.com/spf13/cobra"
)

// cardCmd represents the parent command for memory card image operations.
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Inspect and format GameCube memory card images",
	Long: `Inspect and format raw GameCube memory card images.

Commands:
  info      Show header and table copy status
  files     List the files of the active directory
  format    Create a blank formatted card image

Examples:
  gcnrecover card info memcard.raw
  gcnrecover card files --dir B --bat B memcard.raw
  gcnrecover card format --sjis 16 blank.raw`,
}

// cardInfoCmd prints the header, both copies of each table and block counts.
var cardInfoCmd = &cobra.Command{
	Use:   "info [image]",
	Short: "Show memory card header and table status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := pkg.NewCardProcessor()
		if err := processor.Info(args[0], cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to read card info: %w", err)
		}
		return nil
	},
}

var cardFilesDir, cardFilesBat *tableCopyFlag

// cardFilesCmd lists the directory, optionally from a non-default copy.
var cardFilesCmd = &cobra.Command{
	Use:   "files [image]",
	Short: "List files in the active directory",
	Long: `List files in the active directory of a memory card image.

By default the directory and block table copies are selected from their
checksums and update counters. Use --dir and --bat to inspect the other
copy; the image itself is never modified.

Example:
  gcnrecover card files --dir B memcard.raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := pkg.NewCardProcessor()
		if err := processor.Files(args[0], int(*cardFilesDir), int(*cardFilesBat), cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		return nil
	},
}

// cardFormatCmd writes a blank formatted image.
var cardFormatCmd = &cobra.Command{
	Use:   "format [size] [output_file]",
	Short: "Create a blank formatted memory card image",
	Long: `Create a blank formatted memory card image.

The size is given in megabits (4, 8, 16, 32, 64, 128) or in user blocks
(59, 123, 251, 507, 1019, 2043).

Example:
  gcnrecover card format 4 blank.raw`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := parseCardSize(args[0])
		if err != nil {
			return err
		}

		enc := gcn.EncodingANSI
		if sjis, _ := cmd.Flags().GetBool("sjis"); sjis {
			enc = gcn.EncodingSJIS
		}

		processor := pkg.NewCardProcessor()
		if err := processor.Format(size, enc, args[1]); err != nil {
			return fmt.Errorf("failed to format card: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Blank %d Mbit card written to %s\n", size, args[1])
		return nil
	},
}

// init initializes the card command and its subcommands with appropriate flags.
func init() {
	rootCmd.AddCommand(cardCmd)

	cardCmd.AddCommand(cardInfoCmd)
	cardCmd.AddCommand(cardFilesCmd)
	cardCmd.AddCommand(cardFormatCmd)

	cardFilesDir, cardFilesBat = addTableCopyFlags(cardFilesCmd.Flags())
	cardFormatCmd.Flags().Bool("sjis", false, "Use Shift-JIS encoding (Japanese cards)")
}
