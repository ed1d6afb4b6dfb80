// Package pkg recovers lost files from GameCube memory card images and
// provides the processors used by the command line tools.
package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/hansbonini/gcnrecover/pkg/filedb"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
	"github.com/zeebo/xxh3"
)

// ErrScanCancelled is returned, together with the partial result, when the
// scan context ends before every block was tested.
var ErrScanCancelled = errors.New("scan cancelled")

// GCNLostFileScanner implements LostFileScanner.
type GCNLostFileScanner struct{}

// NewLostFileScanner creates a new scanner instance.
func NewLostFileScanner() *GCNLostFileScanner {
	return &GCNLostFileScanner{}
}

// scanState is the bookkeeping of one Scan call.
type scanState struct {
	card      CardSource
	index     SignatureIndex
	enc       gcn.Encoding
	total     int
	consumed  []bool
	seen      map[Fingerprint]int
	entries   []RecoveredEntry
	addresses []uint32
}

// Scan tests every unclaimed block, in ascending order, against every
// search address of index, also in ascending order. At each position the
// definitions registered for that address are tried in load order and the
// first one whose two patterns match wins. Blocks consumed by a match are
// not tested again.
//
// Only user blocks are searched. The reserved system blocks are skipped
// even when no directory copy is valid and nothing is claimed.
//
// The context is checked between blocks. On cancellation Scan returns the
// entries found so far and an error wrapping both ErrScanCancelled and the
// context error. The card is never modified.
func (s *GCNLostFileScanner) Scan(ctx context.Context, card CardSource, index SignatureIndex) ([]RecoveredEntry, error) {
	st := &scanState{
		card:      card,
		index:     index,
		enc:       card.Encoding(),
		total:     card.TotalBlocks(),
		consumed:  make([]bool, card.TotalBlocks()),
		seen:      make(map[Fingerprint]int),
		addresses: index.Addresses(),
	}

	blocks := card.UnclaimedBlocks()
	common.LogInfo(common.InfoScanStarted, len(blocks), len(st.addresses))

	for n, block := range blocks {
		if err := ctx.Err(); err != nil {
			common.LogWarn(common.WarnScanCancelled, n)
			return st.entries, fmt.Errorf("%w: %w", ErrScanCancelled, err)
		}
		if st.consumed[block] {
			continue
		}

		if err := s.scanBlock(st, block); err != nil {
			return st.entries, common.FormatError(common.ErrFailedToScanCard, err)
		}
	}

	common.LogInfo(common.InfoScanFinished, len(st.entries))
	return st.entries, nil
}

// scanBlock tries every search address against one block and records the
// first match.
func (s *GCNLostFileScanner) scanBlock(st *scanState, block int) error {
	var raw [gcn.CommentSize]byte

	for _, address := range st.addresses {
		offset := int64(block)*gcn.BlockSize + int64(address)
		if offset+gcn.CommentSize > int64(st.total)*gcn.BlockSize {
			common.LogDebug(common.DebugCommentOutOfCard, block, address)
			continue
		}

		if _, err := st.card.ReadAt(raw[:], offset); err != nil {
			return err
		}
		comment := gcn.DecodeComment(raw[:], st.enc)
		common.LogDebug(common.DebugCandidate, block, address, comment.GameDesc, comment.FileDesc)

		for _, def := range st.index.Lookup(address) {
			if !def.Matches(comment.GameDesc, comment.FileDesc) {
				continue
			}

			entry, err := s.recoverEntry(st, block, address, def, comment)
			if err != nil {
				return err
			}
			st.entries = append(st.entries, entry)
			return nil
		}
	}

	return nil
}

// recoverEntry builds the entry for a match and marks its blocks consumed.
func (s *GCNLostFileScanner) recoverEntry(st *scanState, block int, address uint32, def *filedb.FileDefinition, comment gcn.Comment) (RecoveredEntry, error) {
	length := s.recoveredLength(st, block, def)

	entry := RecoveredEntry{
		Entry:      s.syntheticEntry(block, length, address, def),
		Lost:       true,
		Definition: def,
		Block:      block,
		Length:     length,
		Address:    address,
		GameDesc:   comment.GameDesc,
		FileDesc:   comment.FileDesc,
		Region:     def.Region(),
	}

	data := make([]byte, length*gcn.BlockSize)
	if _, err := st.card.ReadAt(data, int64(block)*gcn.BlockSize); err != nil {
		return RecoveredEntry{}, err
	}
	entry.Fingerprint = xxh3.Hash128(data).Bytes()

	if first, ok := st.seen[entry.Fingerprint]; ok {
		entry.DuplicateOf = first
		common.LogWarn(common.WarnDuplicateRecovered, block, first)
	} else {
		st.seen[entry.Fingerprint] = block
	}

	for b := block; b < block+length; b++ {
		st.consumed[b] = true
	}

	common.LogDebug(common.DebugMatch, block, def.Description, def.GameCode, def.Company)
	return entry, nil
}

// recoveredLength returns the hinted length when every hinted block exists
// and is still free, and 1 otherwise.
func (s *GCNLostFileScanner) recoveredLength(st *scanState, block int, def *filedb.FileDefinition) int {
	length := int(def.DirEntry.Length)
	if length <= 1 || block+length > st.total {
		return 1
	}

	for b := block; b < block+length; b++ {
		if st.card.IsClaimed(b) || st.consumed[b] {
			return 1
		}
	}
	return length
}

// syntheticEntry fills a directory entry from the matched definition.
// Filenames come from the definition hint when present.
func (s *GCNLostFileScanner) syntheticEntry(block, length int, address uint32, def *filedb.FileDefinition) gcn.DirEntry {
	entry := gcn.EmptyDirEntry()
	clear(entry.GameCode[:])
	clear(entry.Company[:])
	clear(entry.Filename[:])
	copy(entry.GameCode[:], def.GameCode)
	copy(entry.Company[:], def.Company)

	filename := def.DirEntry.Filename
	if filename == "" {
		filename = fmt.Sprintf("%s%s_lost_%04d", def.GameCode, def.Company, block)
	}
	entry.SetFilename(filename)

	entry.BannerFormat = 0
	entry.LastModified = 0
	entry.IconFormat = 0
	entry.IconSpeed = 0
	entry.Permission = gcn.PermissionPublic
	entry.CopyCount = 0
	entry.Block = uint16(block)
	entry.Length = uint16(length)
	entry.CommentAddress = address
	return entry
}
