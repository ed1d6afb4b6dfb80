package gcn

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ImageWriter builds and edits raw card images. It is used to format blank
// cards and to lay out test images; it never touches an opened Card.
type ImageWriter struct {
	data []byte
}

// NewBlankImage formats a blank card of the given capacity. Both directory
// copies are empty and both block tables mark every user block free. Copy 0
// of each table carries the higher update counter.
func NewBlankImage(sizeMbit uint16, enc Encoding) (*ImageWriter, error) {
	if !IsSupportedSize(sizeMbit) {
		return nil, fmt.Errorf("%w: %d Mbit", ErrUnsupportedSize, sizeMbit)
	}

	totalBlocks := blocksForSize(sizeMbit)
	w := &ImageWriter{data: bytes.Repeat([]byte{0xFF}, totalBlocks*BlockSize)}

	// Header: fields up to the checksum are zeroed before being filled in.
	header := w.block(HeaderBlock)
	clear(header[:headerChecksummedSize])
	h := Header{SizeMbit: sizeMbit, Encoding: enc}
	h.encode(header)

	userBlocks := uint16(totalBlocks - ReservedBlocks)
	for i := 0; i < CopyCount; i++ {
		// The directory block is already all 0xFF: every slot is empty.
		bat := w.block(BlockTableBlock0 + i)
		clear(bat)
		binary.BigEndian.PutUint16(bat[batFreeOffset:], userBlocks)
		binary.BigEndian.PutUint16(bat[batLastAllocOffset:], ReservedBlocks-1)
	}

	w.SetDirCounter(0, 1)
	w.SetDirCounter(1, 0)
	w.SetBATCounter(0, 1)
	w.SetBATCounter(1, 0)
	w.Seal()

	return w, nil
}

func (w *ImageWriter) block(block int) []byte {
	return w.data[block*BlockSize : (block+1)*BlockSize]
}

func (w *ImageWriter) totalBlocks() int {
	return len(w.data) / BlockSize
}

// SetDirEntry stores e in slot of directory copy idx.
func (w *ImageWriter) SetDirEntry(idx, slot int, e DirEntry) error {
	if idx < 0 || idx >= CopyCount || slot < 0 || slot >= DirEntriesPerTable {
		return fmt.Errorf("%w: directory %d slot %d", ErrOutOfRange, idx, slot)
	}
	dir := w.block(DirectoryBlock0 + idx)
	e.encode(dir[slot*DirEntrySize : (slot+1)*DirEntrySize])
	return nil
}

// SetDirCounter sets the update counter of directory copy idx.
func (w *ImageWriter) SetDirCounter(idx int, counter uint16) {
	binary.BigEndian.PutUint16(w.block(DirectoryBlock0 + idx)[dirCounterOffset:], counter)
}

// SetBATCounter sets the update counter of block table copy idx.
func (w *ImageWriter) SetBATCounter(idx int, counter uint16) {
	binary.BigEndian.PutUint16(w.block(BlockTableBlock0 + idx)[batCounterOffset:], counter)
}

// AllocateChain links blocks, in order, into one chain in block table copy
// idx and updates its free block count.
func (w *ImageWriter) AllocateChain(idx int, blocks []int) error {
	if idx < 0 || idx >= CopyCount {
		return fmt.Errorf("%w: block table %d", ErrOutOfRange, idx)
	}

	bat := w.block(BlockTableBlock0 + idx)
	for i, block := range blocks {
		if block < ReservedBlocks || block >= w.totalBlocks() {
			return fmt.Errorf("%w: block %d", ErrOutOfRange, block)
		}

		next := BlockLastInChain
		if i+1 < len(blocks) {
			next = uint16(blocks[i+1])
		}
		binary.BigEndian.PutUint16(bat[batMapOffset+(block-ReservedBlocks)*2:], next)
		binary.BigEndian.PutUint16(bat[batLastAllocOffset:], uint16(block))
	}

	table, _ := decodeBlockTable(bat)
	binary.BigEndian.PutUint16(bat[batFreeOffset:], uint16(table.CountFree(w.totalBlocks())))
	return nil
}

// WriteAt copies p into the image at off.
func (w *ImageWriter) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(w.data)) {
		return 0, fmt.Errorf("%w: %d bytes at offset %d", ErrOutOfRange, len(p), off)
	}
	return copy(w.data[off:], p), nil
}

// WriteComment stores a game and file description at a file's comment
// address, counted from the start of block.
func (w *ImageWriter) WriteComment(block int, address uint32, comment Comment, enc Encoding) error {
	var raw [CommentSize]byte
	copy(raw[:CommentFieldSize-1], EncodeText(comment.GameDesc, enc))
	copy(raw[CommentFieldSize:CommentSize-1], EncodeText(comment.FileDesc, enc))

	_, err := w.WriteAt(raw[:], int64(block)*BlockSize+int64(address))
	return err
}

// Seal recomputes the checksums of the header and of every table copy.
func (w *ImageWriter) Seal() {
	header := w.block(HeaderBlock)
	putChecksum(header, headerChecksumOffset, ComputeChecksum(header[:headerChecksummedSize]))

	for i := 0; i < CopyCount; i++ {
		sealDirectory(w.block(DirectoryBlock0 + i))
		sealBlockTable(w.block(BlockTableBlock0 + i))
	}
}

// Bytes returns a copy of the image.
func (w *ImageWriter) Bytes() []byte {
	return bytes.Clone(w.data)
}
