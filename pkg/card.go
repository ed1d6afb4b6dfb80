package pkg

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
)

// KeepActiveCopy leaves the active table copy as selected from the card.
const KeepActiveCopy = -1

// CardProcessor handles memory card image inspection and formatting.
type CardProcessor struct{}

// NewCardProcessor creates a new card processor instance.
func NewCardProcessor() *CardProcessor {
	return &CardProcessor{}
}

// OpenCard opens an image and applies optional active copy overrides.
// Pass KeepActiveCopy to keep the copy chosen from validity and counters.
func (p *CardProcessor) OpenCard(path string, dirIdx, batIdx int) (*gcn.Card, error) {
	card, err := gcn.OpenFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenCard, err)
	}
	common.LogInfo(common.InfoCardOpened, card.TotalBlocks(), card.SizeMbit(), card.Encoding())

	if dirIdx != KeepActiveCopy {
		if err := card.SetActiveDirIndex(dirIdx); err != nil {
			card.Close()
			return nil, common.FormatError(common.ErrFailedToSelectDirectory, err)
		}
		common.LogInfo(common.InfoActiveDirSelected, gcn.CopyLetter(dirIdx))
	}

	if batIdx != KeepActiveCopy {
		if err := card.SetActiveBATIndex(batIdx); err != nil {
			card.Close()
			return nil, common.FormatError(common.ErrFailedToSelectBlockTable, err)
		}
		common.LogInfo(common.InfoActiveBATSelected, gcn.CopyLetter(batIdx))
	}

	return card, nil
}

// Info prints the header, table copies and block counts of a card.
func (p *CardProcessor) Info(path string, w io.Writer) error {
	card, err := p.OpenCard(path, KeepActiveCopy, KeepActiveCopy)
	if err != nil {
		return err
	}
	defer card.Close()

	header := card.Header()
	headerState := "valid"
	if !card.HeaderValid() {
		headerState = "checksum mismatch"
	}

	fmt.Fprintf(w, "Size:         %d Mbit (%d blocks, %d usable)\n", card.SizeMbit(), card.TotalBlocks(), card.UserBlocks())
	fmt.Fprintf(w, "Free blocks:  %d\n", card.FreeBlocks())
	fmt.Fprintf(w, "Encoding:     %s\n", card.Encoding())
	fmt.Fprintf(w, "Header:       %s\n", headerState)
	fmt.Fprintf(w, "Serial:       %s\n", strings.ToUpper(hex.EncodeToString(header.Serial[:])))
	fmt.Fprintf(w, "Formatted:    %s\n", header.FormattedAt().Format("2006-01-02 15:04:05"))

	for i := 0; i < card.DirCount(); i++ {
		status, err := card.DirStatus(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Directory %c:  %s\n", gcn.CopyLetter(i), formatTableStatus(status))
	}
	for i := 0; i < card.BATCount(); i++ {
		status, err := card.BATStatus(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Block table %c: %s\n", gcn.CopyLetter(i), formatTableStatus(status))
	}

	fmt.Fprintf(w, "Files:        %d\n", len(card.Files()))
	return nil
}

func formatTableStatus(s gcn.TableStatus) string {
	state := "valid"
	if !s.Valid {
		state = "INVALID"
	}

	line := fmt.Sprintf("%-7s counter=%d checksum=%04X:%04X", state, int16(s.Counter), s.Checksum.Sum, s.Checksum.Inverse)
	if s.HeaderActive {
		line += " [header]"
	}
	if s.Active {
		line += " [active]"
	}
	return line
}

// Files prints the directory listing of a card after applying the
// requested active copy overrides.
func (p *CardProcessor) Files(path string, dirIdx, batIdx int, w io.Writer) error {
	card, err := p.OpenCard(path, dirIdx, batIdx)
	if err != nil {
		return err
	}
	defer card.Close()

	files := card.Files()
	fmt.Fprintf(w, "Directory %c, block table %c: %d files, %d of %d blocks free\n",
		gcn.CopyLetter(card.ActiveDirIndex()), gcn.CopyLetter(card.ActiveBATIndex()),
		len(files), card.FreeBlocks(), card.UserBlocks())

	for _, f := range files {
		comment, err := card.FileComment(f)
		if err != nil {
			common.LogDebug(common.DebugCommentUnreadable, f.Slot, err)
		}

		fmt.Fprintf(w, "%3d  %s%s  %-32s  %4d blocks @%-4d  %s  %q / %q\n",
			f.Slot, f.Entry.GameCodeString(), f.Entry.CompanyString(), f.Entry.FilenameString(),
			len(f.Blocks), f.Entry.Block, f.Entry.ModTime().Format("2006-01-02 15:04:05"),
			comment.GameDesc, comment.FileDesc)
	}

	return nil
}

// Format writes a blank formatted card image to path.
func (p *CardProcessor) Format(sizeMbit uint16, enc gcn.Encoding, path string) error {
	image, err := gcn.NewBlankImage(sizeMbit, enc)
	if err != nil {
		return common.FormatError(common.ErrFailedToFormatCard, err)
	}

	if err := os.WriteFile(path, image.Bytes(), 0o644); err != nil {
		return common.FormatError(common.ErrFailedToWriteCard, err)
	}

	common.LogInfo(common.InfoCardFormatted, sizeMbit, path)
	return nil
}
