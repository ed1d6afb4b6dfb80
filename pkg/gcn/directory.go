package gcn

import "encoding/binary"

// Directory is one decoded copy of the directory table.
type Directory struct {
	Entries       [DirEntriesPerTable]DirEntry
	UpdateCounter uint16
	Checksum      Checksum
}

// decodeDirectory parses a directory block and reports whether its stored
// checksum matches the one recomputed over its contents.
func decodeDirectory(block []byte) (Directory, bool) {
	var d Directory
	for i := range d.Entries {
		// Entries are fixed-size and the block length is checked by the caller.
		d.Entries[i], _ = DecodeDirEntry(block[i*DirEntrySize:])
	}
	d.UpdateCounter = binary.BigEndian.Uint16(block[dirCounterOffset:])
	d.Checksum = readChecksum(block, dirChecksumOffset)

	computed := ComputeChecksum(block[:dirChecksummedBytes])
	return d, computed == d.Checksum
}

// sealDirectory recomputes and stores the checksum of a directory block.
func sealDirectory(block []byte) Checksum {
	c := ComputeChecksum(block[:dirChecksummedBytes])
	putChecksum(block, dirChecksumOffset, c)
	return c
}

// ValidateDirectory reports whether a raw directory block carries a matching
// checksum pair.
func ValidateDirectory(block []byte) bool {
	if len(block) < BlockSize {
		return false
	}
	return ComputeChecksum(block[:dirChecksummedBytes]) == readChecksum(block, dirChecksumOffset)
}

// UsedEntries returns the slot numbers of every non-empty entry.
func (d *Directory) UsedEntries() []int {
	var slots []int
	for i := range d.Entries {
		if !d.Entries[i].IsEmpty() {
			slots = append(slots, i)
		}
	}
	return slots
}
