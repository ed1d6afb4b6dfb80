package gcn

import "encoding/binary"

// BlockTable is one decoded copy of the block allocation table.
type BlockTable struct {
	Checksum      Checksum
	UpdateCounter uint16
	FreeBlocks    uint16 // as stored on the card
	LastAllocated uint16
	Map           [BlockMapEntries]uint16
}

// decodeBlockTable parses a block allocation table and reports whether its
// stored checksum matches the one recomputed over its contents.
func decodeBlockTable(block []byte) (BlockTable, bool) {
	var b BlockTable
	b.Checksum = readChecksum(block, batChecksumOffset)
	b.UpdateCounter = binary.BigEndian.Uint16(block[batCounterOffset:])
	b.FreeBlocks = binary.BigEndian.Uint16(block[batFreeOffset:])
	b.LastAllocated = binary.BigEndian.Uint16(block[batLastAllocOffset:])
	for i := range b.Map {
		b.Map[i] = binary.BigEndian.Uint16(block[batMapOffset+i*2:])
	}

	computed := ComputeChecksum(block[batChecksumStart:BlockSize])
	return b, computed == b.Checksum
}

// sealBlockTable recomputes and stores the checksum of a block table block.
func sealBlockTable(block []byte) Checksum {
	c := ComputeChecksum(block[batChecksumStart:BlockSize])
	putChecksum(block, batChecksumOffset, c)
	return c
}

// Next returns the successor of block in its chain. Blocks outside the map
// report BlockFree.
func (b *BlockTable) Next(block int) uint16 {
	i := block - ReservedBlocks
	if i < 0 || i >= len(b.Map) {
		return BlockFree
	}
	return b.Map[i]
}

// CountFree counts the free map entries covering a card of totalBlocks.
func (b *BlockTable) CountFree(totalBlocks int) int {
	free := 0
	for block := ReservedBlocks; block < totalBlocks; block++ {
		if b.Next(block) == BlockFree {
			free++
		}
	}
	return free
}
