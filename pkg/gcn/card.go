package gcn

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"golang.org/x/exp/mmap"
)

// File is a directory entry of the active directory together with the
// blocks its chain resolves to.
type File struct {
	Slot   int
	Entry  DirEntry
	Blocks []int
}

// TableStatus summarizes one copy of a redundant table.
type TableStatus struct {
	Index        int
	Valid        bool
	Counter      uint16
	Checksum     Checksum
	Active       bool // selected by the user
	HeaderActive bool // selected from validity and update counters
}

// Card is an opened memory card image. The card owns its image buffer; it
// never writes to it.
type Card struct {
	mu sync.RWMutex

	data        []byte
	sizeMbit    uint16
	totalBlocks int

	header      Header
	headerValid bool

	dirs [CopyCount]TableCopy[Directory]
	bats [CopyCount]TableCopy[BlockTable]

	headerDirIdx int
	headerBatIdx int
	activeDirIdx int
	activeBatIdx int

	// derived from the active tables
	files   []File
	claimed []bool

	version   uint64
	observers observers
	closed    bool
}

// Open decodes a memory card image. The image is copied; later changes to
// data do not affect the card.
//
// Open only fails when the image size is not a supported capacity. Cards
// whose tables are all invalid are accepted so that signature-based
// recovery can still run.
func Open(data []byte) (*Card, error) {
	return open(bytes.Clone(data))
}

// OpenFile reads a memory card image through a read-only memory map. The
// mapping is released before OpenFile returns.
func OpenFile(path string) (*Card, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToMapCard, err)
	}
	defer reader.Close()

	if sizeForLength(reader.Len()) == 0 {
		return nil, fmt.Errorf("%w: %s holds %d bytes, not a whole card capacity", ErrUnsupportedSize, path, reader.Len())
	}

	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil {
		return nil, common.FormatError(common.ErrFailedToReadCard, err)
	}

	return open(data)
}

func open(data []byte) (*Card, error) {
	sizeMbit := sizeForLength(len(data))
	if sizeMbit == 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole card capacity", ErrUnsupportedSize, len(data))
	}

	c := &Card{
		data:        data,
		sizeMbit:    sizeMbit,
		totalBlocks: len(data) / BlockSize,
	}
	c.load()

	return c, nil
}

// load decodes the header and both copies of each table, then selects the
// active copies.
func (c *Card) load() {
	headerBlock := c.rawBlock(HeaderBlock)
	c.header = decodeHeader(headerBlock)

	valid, computed := headerChecksumValid(headerBlock)
	c.headerValid = valid
	if !valid {
		common.LogWarn(common.WarnHeaderChecksum,
			c.header.Checksum.Sum, c.header.Checksum.Inverse, computed.Sum, computed.Inverse)
	}
	if c.header.SizeMbit != c.sizeMbit {
		common.LogWarn(common.WarnHeaderSizeMismatch, c.header.SizeMbit, c.sizeMbit)
	}

	for i := 0; i < CopyCount; i++ {
		dir, ok := decodeDirectory(c.rawBlock(DirectoryBlock0 + i))
		c.dirs[i] = TableCopy[Directory]{Valid: ok, Counter: dir.UpdateCounter, Contents: dir}
		common.LogDebug(common.DebugTableCopy, "Directory", CopyLetter(i), ok,
			int16(dir.UpdateCounter), dir.Checksum.Sum, dir.Checksum.Inverse)

		bat, ok := decodeBlockTable(c.rawBlock(BlockTableBlock0 + i))
		c.bats[i] = TableCopy[BlockTable]{Valid: ok, Counter: bat.UpdateCounter, Contents: bat}
		common.LogDebug(common.DebugTableCopy, "Block table", CopyLetter(i), ok,
			int16(bat.UpdateCounter), bat.Checksum.Sum, bat.Checksum.Inverse)
	}

	c.headerDirIdx = SelectActive(c.dirs)
	c.headerBatIdx = SelectActive(c.bats)
	c.activeDirIdx = c.headerDirIdx
	c.activeBatIdx = c.headerBatIdx

	if c.headerDirIdx == NoActiveCopy {
		common.LogWarn(common.WarnNoValidDirectory)
	}
	if c.headerBatIdx == NoActiveCopy {
		common.LogWarn(common.WarnNoValidBlockTable)
	}

	c.rebuild()
}

func (c *Card) rawBlock(block int) []byte {
	return c.data[block*BlockSize : (block+1)*BlockSize]
}

// rebuild derives the file list and the claimed block set from the active
// directory and block table. Callers hold the write lock.
func (c *Card) rebuild() {
	c.files = nil
	c.claimed = make([]bool, c.totalBlocks)

	if c.activeDirIdx == NoActiveCopy {
		return
	}

	dir := &c.dirs[c.activeDirIdx].Contents
	var bat *BlockTable
	if c.activeBatIdx != NoActiveCopy {
		bat = &c.bats[c.activeBatIdx].Contents
	}

	for _, slot := range dir.UsedEntries() {
		entry := dir.Entries[slot]
		blocks := c.resolveChain(slot, &entry, bat)
		for _, block := range blocks {
			c.claimed[block] = true
		}
		c.files = append(c.files, File{Slot: slot, Entry: entry, Blocks: blocks})
	}
}

// resolveChain lists the blocks belonging to an entry. With a block table
// the chain is followed until its terminator; without one the entry is
// assumed to be stored contiguously.
func (c *Card) resolveChain(slot int, entry *DirEntry, bat *BlockTable) []int {
	if !entry.StartsInUserArea(c.totalBlocks) {
		return nil
	}

	var blocks []int
	if bat == nil {
		end := min(int(entry.Block)+int(entry.Length), c.totalBlocks)
		for block := int(entry.Block); block < end; block++ {
			blocks = append(blocks, block)
		}
		return blocks
	}

	visited := make([]bool, c.totalBlocks)
	block := int(entry.Block)
	for {
		if visited[block] {
			common.LogDebug(common.DebugChainLoop, slot, block)
			break
		}
		visited[block] = true
		blocks = append(blocks, block)

		next := bat.Next(block)
		if next == BlockLastInChain {
			break
		}
		if next == BlockFree || int(next) < ReservedBlocks || int(next) >= c.totalBlocks {
			common.LogDebug(common.DebugChainBroken, slot, block, next)
			break
		}
		block = int(next)
	}

	return blocks
}

// SizeMbit returns the card capacity in megabits.
func (c *Card) SizeMbit() uint16 {
	return c.sizeMbit
}

// TotalBlocks returns the physical block count, system blocks included.
func (c *Card) TotalBlocks() int {
	return c.totalBlocks
}

// UserBlocks returns the block count shown to users: the physical count
// minus the reserved system blocks.
func (c *Card) UserBlocks() int {
	return c.totalBlocks - ReservedBlocks
}

// FreeBlocks counts free entries in the active block table. Without an
// active block table no block can be shown to be allocated, so every user
// block counts as free.
func (c *Card) FreeBlocks() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.activeBatIdx == NoActiveCopy {
		return c.UserBlocks()
	}
	return c.bats[c.activeBatIdx].Contents.CountFree(c.totalBlocks)
}

// Header returns the decoded card header.
func (c *Card) Header() Header {
	return c.header
}

// HeaderValid reports whether the header checksum matched.
func (c *Card) HeaderValid() bool {
	return c.headerValid
}

// Encoding returns the text encoding used for comments and filenames.
// Unrecognized header values fall back to ANSI.
func (c *Card) Encoding() Encoding {
	if c.header.Encoding == EncodingSJIS {
		return EncodingSJIS
	}
	return EncodingANSI
}

// DirCount returns the number of directory table copies.
func (c *Card) DirCount() int {
	return CopyCount
}

// BATCount returns the number of block table copies.
func (c *Card) BATCount() int {
	return CopyCount
}

// IsDirValid reports whether directory copy idx passed its checksum.
func (c *Card) IsDirValid(idx int) bool {
	return idx >= 0 && idx < CopyCount && c.dirs[idx].Valid
}

// IsBATValid reports whether block table copy idx passed its checksum.
func (c *Card) IsBATValid(idx int) bool {
	return idx >= 0 && idx < CopyCount && c.bats[idx].Valid
}

// HeaderDirIndex returns the directory copy selected by validity and update
// counters when the card was opened.
func (c *Card) HeaderDirIndex() int {
	return c.headerDirIdx
}

// HeaderBATIndex returns the block table copy selected by validity and
// update counters when the card was opened.
func (c *Card) HeaderBATIndex() int {
	return c.headerBatIdx
}

// ActiveDirIndex returns the directory copy currently in use.
func (c *Card) ActiveDirIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeDirIdx
}

// ActiveBATIndex returns the block table copy currently in use.
func (c *Card) ActiveBATIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeBatIdx
}

// SetActiveDirIndex makes directory copy idx the active one and rederives
// the file list and claimed blocks. Out-of-range or invalid copies are
// rejected and the previous selection is kept. The image is not modified.
func (c *Card) SetActiveDirIndex(idx int) error {
	return c.setActive(EventActiveDirChanged, idx)
}

// SetActiveBATIndex makes block table copy idx the active one and rederives
// the file list and claimed blocks. Out-of-range or invalid copies are
// rejected and the previous selection is kept. The image is not modified.
func (c *Card) SetActiveBATIndex(idx int) error {
	return c.setActive(EventActiveBATChanged, idx)
}

func (c *Card) setActive(kind EventKind, idx int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCardClosed
	}

	active, valid, name := &c.activeDirIdx, c.IsDirValid(idx), "directory table"
	if kind == EventActiveBATChanged {
		active, valid, name = &c.activeBatIdx, c.IsBATValid(idx), "block table"
	}

	if !valid {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s %d is out of range or invalid", ErrInvalidTableIndex, name, idx)
	}
	if *active == idx {
		c.mu.Unlock()
		return nil
	}

	*active = idx
	c.rebuild()
	c.version++
	event := Event{Kind: kind, Index: idx, Version: c.version}
	callbacks := c.observers.snapshot()
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(event)
	}
	return nil
}

// DirStatus describes directory copy idx.
func (c *Card) DirStatus(idx int) (TableStatus, error) {
	if idx < 0 || idx >= CopyCount {
		return TableStatus{}, fmt.Errorf("%w: directory table %d", ErrOutOfRange, idx)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	d := &c.dirs[idx]
	return TableStatus{
		Index:        idx,
		Valid:        d.Valid,
		Counter:      d.Counter,
		Checksum:     d.Contents.Checksum,
		Active:       idx == c.activeDirIdx,
		HeaderActive: idx == c.headerDirIdx,
	}, nil
}

// BATStatus describes block table copy idx.
func (c *Card) BATStatus(idx int) (TableStatus, error) {
	if idx < 0 || idx >= CopyCount {
		return TableStatus{}, fmt.Errorf("%w: block table %d", ErrOutOfRange, idx)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	b := &c.bats[idx]
	return TableStatus{
		Index:        idx,
		Valid:        b.Valid,
		Counter:      b.Counter,
		Checksum:     b.Contents.Checksum,
		Active:       idx == c.activeBatIdx,
		HeaderActive: idx == c.headerBatIdx,
	}, nil
}

// Files returns the used entries of the active directory in slot order.
// The result is empty when no directory copy is valid.
func (c *Card) Files() []File {
	c.mu.RLock()
	defer c.mu.RUnlock()

	files := make([]File, len(c.files))
	for i, f := range c.files {
		files[i] = File{Slot: f.Slot, Entry: f.Entry, Blocks: slices.Clone(f.Blocks)}
	}
	return files
}

// IsClaimed reports whether block belongs to a file of the active directory.
func (c *Card) IsClaimed(block int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if block < 0 || block >= len(c.claimed) {
		return false
	}
	return c.claimed[block]
}

// UnclaimedBlocks lists, in ascending order, every user block not reachable
// from the active directory.
func (c *Card) UnclaimedBlocks() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var blocks []int
	for block := ReservedBlocks; block < len(c.claimed); block++ {
		if !c.claimed[block] {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// ReadAt implements io.ReaderAt over the raw image.
func (c *Card) ReadAt(p []byte, off int64) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrCardClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOutOfRange, off)
	}
	if off >= int64(len(c.data)) {
		return 0, io.EOF
	}

	n := copy(p, c.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Block returns a copy of one raw block.
func (c *Card) Block(block int) ([]byte, error) {
	if block < 0 || block >= c.totalBlocks {
		return nil, fmt.Errorf("%w: block %d of %d", ErrOutOfRange, block, c.totalBlocks)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCardClosed
	}
	return common.ReadBytes(c.data, block*BlockSize, BlockSize)
}

// FileComment reads the descriptions of a listed file. The comment address
// is an offset into the file data, so it is resolved through the file's
// block chain.
func (c *Card) FileComment(f File) (Comment, error) {
	var raw [CommentSize]byte

	pos := int(f.Entry.CommentAddress)
	for n := 0; n < CommentSize; {
		idx := (pos + n) / BlockSize
		if idx >= len(f.Blocks) {
			return Comment{}, fmt.Errorf("%w: comment at 0x%X is past the end of slot %d", ErrOutOfRange, pos, f.Slot)
		}

		inBlock := (pos + n) % BlockSize
		chunk := min(CommentSize-n, BlockSize-inBlock)
		off := int64(f.Blocks[idx])*BlockSize + int64(inBlock)
		if _, err := c.ReadAt(raw[n:n+chunk], off); err != nil {
			return Comment{}, err
		}
		n += chunk
	}

	return DecodeComment(raw[:], c.Encoding()), nil
}

// Version increases every time the active tables change or the card is
// closed. Presentation layers may poll it instead of subscribing.
func (c *Card) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Subscribe registers fn to be called after every state change. Callbacks
// run on the goroutine that made the change, after the card lock has been
// released. The returned function removes the subscription.
func (c *Card) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.observers.add(fn)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.observers.remove(id)
		c.mu.Unlock()
	}
}

// Close releases the image buffer. Accessors that read the image fail
// with ErrCardClosed afterwards.
func (c *Card) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true
	c.data = nil
	c.files = nil
	c.claimed = nil
	c.version++
	event := Event{Kind: EventClosed, Index: NoActiveCopy, Version: c.version}
	callbacks := c.observers.snapshot()
	c.observers = observers{}
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(event)
	}
	return nil
}
