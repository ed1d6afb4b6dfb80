package gcn

import "encoding/binary"

// Checksum is the additive/inverted checksum pair used by the card header,
// the directory tables and the block allocation tables.
type Checksum struct {
	Sum     uint16
	Inverse uint16
}

// ComputeChecksum calculates the checksum pair over data, read as big-endian
// 16-bit words. A trailing odd byte is ignored. Results of 0xFFFF are folded
// to 0, matching the card firmware.
func ComputeChecksum(data []byte) Checksum {
	var c Checksum
	for i := 0; i+1 < len(data); i += 2 {
		word := binary.BigEndian.Uint16(data[i:])
		c.Sum += word
		c.Inverse += word ^ 0xFFFF
	}

	if c.Sum == 0xFFFF {
		c.Sum = 0
	}
	if c.Inverse == 0xFFFF {
		c.Inverse = 0
	}

	return c
}

// readChecksum reads a stored checksum pair at offset.
func readChecksum(data []byte, offset int) Checksum {
	return Checksum{
		Sum:     binary.BigEndian.Uint16(data[offset:]),
		Inverse: binary.BigEndian.Uint16(data[offset+2:]),
	}
}

// putChecksum stores a checksum pair at offset.
func putChecksum(data []byte, offset int, c Checksum) {
	binary.BigEndian.PutUint16(data[offset:], c.Sum)
	binary.BigEndian.PutUint16(data[offset+2:], c.Inverse)
}
