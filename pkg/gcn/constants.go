// Package gcn models GameCube memory card images: the card header, the
// redundant directory and block allocation tables, and the file chains
// they describe.
//
// Layout based on the YAGCD memory card chapter and libogc's card_dat/card_bat.
// All multi-byte values on the card are big-endian.
package gcn

import "errors"

// Block geometry.
const (
	BlockSize      = 0x2000
	ReservedBlocks = 5 // header, two directory copies, two block table copies
	MbitBlocks     = 16
)

// System block numbers.
const (
	HeaderBlock      = 0
	DirectoryBlock0  = 1
	DirectoryBlock1  = 2
	BlockTableBlock0 = 3
	BlockTableBlock1 = 4
)

// Supported card capacities in megabits.
const (
	MemoryCard59 uint16 = 4 << iota
	MemoryCard123
	MemoryCard251
	MemoryCard507
	MemoryCard1019
	MemoryCard2043
)

// SupportedSizes lists every card capacity the model accepts, in megabits.
var SupportedSizes = []uint16{
	MemoryCard59,
	MemoryCard123,
	MemoryCard251,
	MemoryCard507,
	MemoryCard1019,
	MemoryCard2043,
}

// Table copies.
const (
	CopyCount    = 2
	NoActiveCopy = -1
)

// Directory table layout.
const (
	DirEntrySize        = 0x40
	DirEntriesPerTable  = 127
	dirCounterOffset    = 0x1FFA
	dirChecksumOffset   = 0x1FFC
	dirChecksummedBytes = 0x1FFC
)

// Block allocation table layout.
const (
	batChecksumOffset  = 0x0000
	batCounterOffset   = 0x0004
	batFreeOffset      = 0x0006
	batLastAllocOffset = 0x0008
	batMapOffset       = 0x000A
	batChecksumStart   = 0x0004
	BlockMapEntries    = (BlockSize - batMapOffset) / 2
)

// Block allocation map values.
const (
	BlockFree        uint16 = 0x0000
	BlockLastInChain uint16 = 0xFFFF
)

// Comment layout: a game description followed by a file description.
const (
	CommentFieldSize = 32
	CommentSize      = CommentFieldSize * 2
)

var (
	// ErrUnsupportedSize is returned when an image is not one of the
	// supported card capacities.
	ErrUnsupportedSize = errors.New("unsupported memory card size")

	// ErrInvalidTableIndex is returned when selecting a table copy that is
	// out of range or structurally invalid.
	ErrInvalidTableIndex = errors.New("invalid table index")

	// ErrCardClosed is returned by accessors once the card has been closed.
	ErrCardClosed = errors.New("memory card is closed")

	// ErrOutOfRange is returned for block or slot indices outside the card.
	ErrOutOfRange = errors.New("index out of range")
)

// blocksForSize returns the physical block count of a card capacity.
func blocksForSize(sizeMbit uint16) int {
	return int(sizeMbit) * MbitBlocks
}

// sizeForLength returns the capacity matching an image length, or 0 if the
// length is not a supported capacity.
func sizeForLength(length int) uint16 {
	for _, size := range SupportedSizes {
		if blocksForSize(size)*BlockSize == length {
			return size
		}
	}
	return 0
}

// IsSupportedSize reports whether sizeMbit is a supported card capacity.
func IsSupportedSize(sizeMbit uint16) bool {
	for _, size := range SupportedSizes {
		if size == sizeMbit {
			return true
		}
	}
	return false
}
