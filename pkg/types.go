package pkg

import (
	"context"
	"io"

	"github.com/hansbonini/gcnrecover/pkg/filedb"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
)

// Fingerprint is the xxh3-128 hash of the blocks covered by a recovered
// entry, big-endian.
type Fingerprint [16]byte

// RecoveredEntry is a directory entry rebuilt for a lost file. It is not
// present in any valid directory table.
type RecoveredEntry struct {
	Entry       gcn.DirEntry // synthetic; LastModified is zero
	Lost        bool
	Definition  *filedb.FileDefinition
	Block       int    // first block of the file
	Length      int    // blocks covered, starting at Block
	Address     uint32 // comment address relative to Block
	GameDesc    string
	FileDesc    string
	Region      filedb.Region // informational only
	Fingerprint Fingerprint
	DuplicateOf int // first block of an earlier entry with the same data, or 0
}

// Blocks lists the blocks covered by the entry.
func (e *RecoveredEntry) Blocks() []int {
	blocks := make([]int, e.Length)
	for i := range blocks {
		blocks[i] = e.Block + i
	}
	return blocks
}

// SignatureIndex is the read side of a signature database.
type SignatureIndex interface {
	Addresses() []uint32
	Lookup(address uint32) []*filedb.FileDefinition
}

// CardSource is the read side of an opened memory card used while
// scanning.
type CardSource interface {
	io.ReaderAt
	TotalBlocks() int
	Encoding() gcn.Encoding
	IsClaimed(block int) bool
	UnclaimedBlocks() []int
}

// LostFileScanner searches unclaimed card space for known files.
type LostFileScanner interface {
	Scan(ctx context.Context, card CardSource, index SignatureIndex) ([]RecoveredEntry, error)
}

// ScanExporter writes scan results to external formats.
type ScanExporter interface {
	ExportScanReport(w io.Writer, card *gcn.Card, entries []RecoveredEntry) error
	ExportScanReportFile(path string, card *gcn.Card, entries []RecoveredEntry) error
}
