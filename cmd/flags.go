package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hansbonini/gcnrecover/pkg"
	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
	"github.com/spf13/pflag"
)

// tableCopyFlag selects a directory or block table copy. It accepts the
// copy letter (A, B), its index (0, 1) or "auto".
type tableCopyFlag int

var _ pflag.Value = (*tableCopyFlag)(nil)

func newTableCopyFlag() *tableCopyFlag {
	f := tableCopyFlag(pkg.KeepActiveCopy)
	return &f
}

func (f *tableCopyFlag) String() string {
	if int(*f) == pkg.KeepActiveCopy {
		return "auto"
	}
	return string(gcn.CopyLetter(int(*f)))
}

func (f *tableCopyFlag) Set(value string) error {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "AUTO", "":
		*f = tableCopyFlag(pkg.KeepActiveCopy)
	case "A", "0":
		*f = 0
	case "B", "1":
		*f = 1
	default:
		return fmt.Errorf("table copy must be A, B or auto, got %q", value)
	}
	return nil
}

func (f *tableCopyFlag) Type() string {
	return "copy"
}

// addTableCopyFlags registers --dir and --bat on flags.
func addTableCopyFlags(flags *pflag.FlagSet) (dir, bat *tableCopyFlag) {
	dir, bat = newTableCopyFlag(), newTableCopyFlag()
	flags.Var(dir, "dir", "Directory table copy to use (A, B or auto)")
	flags.Var(bat, "bat", "Block table copy to use (A, B or auto)")
	return dir, bat
}

// parseCardSize accepts a capacity in megabits (4) or in user blocks (59).
func parseCardSize(value string) (uint16, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid card size %q: %w", value, err)
	}

	size, err := common.SafeIntToUint16(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", gcn.ErrUnsupportedSize, err)
	}
	if gcn.IsSupportedSize(size) {
		return size, nil
	}
	for _, supported := range gcn.SupportedSizes {
		if int(size) == int(supported)*gcn.MbitBlocks-gcn.ReservedBlocks {
			return supported, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", gcn.ErrUnsupportedSize, value)
}
