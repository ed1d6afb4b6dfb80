package gcn

import "testing"

func TestComputeChecksum(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected Checksum
	}{
		{"empty", []byte{}, Checksum{0, 0}},
		{"single word", []byte{0x12, 0x34}, Checksum{0x1234, 0xEDCB}},
		{"two words", []byte{0x00, 0x01, 0x00, 0x02}, Checksum{0x0003, 0xFFFB}},
		{"sum folds to zero", []byte{0xFF, 0xFF}, Checksum{0, 0}},
		{"inverse folds to zero", []byte{0x00, 0x00}, Checksum{0, 0}},
		{"odd trailing byte ignored", []byte{0x00, 0x05, 0x77}, Checksum{0x0005, 0xFFFA}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeChecksum(tc.data)
			if got != tc.expected {
				t.Errorf("ComputeChecksum(%v) = %04X:%04X, want %04X:%04X",
					tc.data, got.Sum, got.Inverse, tc.expected.Sum, tc.expected.Inverse)
			}
		})
	}
}

// sealedTables returns a formatted image with one file so that both
// tables hold a mix of set and cleared bytes.
func sealedTables(t *testing.T) []byte {
	t.Helper()
	w, err := NewBlankImage(MemoryCard59, EncodingANSI)
	if err != nil {
		t.Fatalf("NewBlankImage() failed: %v", err)
	}
	if err := w.SetDirEntry(0, 0, testEntry("GMSE", "01", "super_mario_sunshine", 10, 3)); err != nil {
		t.Fatalf("SetDirEntry() failed: %v", err)
	}
	if err := w.AllocateChain(0, []int{10, 11, 12}); err != nil {
		t.Fatalf("AllocateChain() failed: %v", err)
	}
	w.Seal()
	return w.Bytes()
}

func TestTableChecksum_ByteFlip(t *testing.T) {
	image := sealedTables(t)

	testCases := []struct {
		name     string
		block    int
		from, to int
		valid    func([]byte) bool
	}{
		{
			name:  "directory",
			block: DirectoryBlock0,
			from:  0,
			to:    dirChecksummedBytes,
			valid: ValidateDirectory,
		},
		{
			name:  "block table",
			block: BlockTableBlock0,
			from:  batChecksumStart,
			to:    BlockSize,
			valid: func(b []byte) bool {
				_, ok := decodeBlockTable(b)
				return ok
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := image[tc.block*BlockSize : (tc.block+1)*BlockSize]
			if !tc.valid(table) {
				t.Fatal("freshly sealed table should validate")
			}

			// Every byte covered by the checksum is significant.
			for _, mask := range []byte{0xFF, 0x01, 0x80} {
				for i := tc.from; i < tc.to; i++ {
					table[i] ^= mask
					if tc.valid(table) {
						t.Errorf("still valid after flipping byte 0x%04X with mask %02X", i, mask)
					}
					table[i] ^= mask
				}
			}

			if !tc.valid(table) {
				t.Error("table should validate again once restored")
			}
		})
	}
}

func TestValidateDirectory_ShortBlock(t *testing.T) {
	if ValidateDirectory(make([]byte, 16)) {
		t.Error("a truncated block must not validate")
	}
}
