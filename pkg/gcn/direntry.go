package gcn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hansbonini/gcnrecover/pkg/common"
)

// DirEntry field offsets.
const (
	entryGameCodeOffset     = 0x00
	entryCompanyOffset      = 0x04
	entryPadOffset          = 0x06
	entryBannerFormatOffset = 0x07
	entryFilenameOffset     = 0x08
	entryModTimeOffset      = 0x28
	entryIconAddressOffset  = 0x2C
	entryIconFormatOffset   = 0x30
	entryIconSpeedOffset    = 0x32
	entryPermissionOffset   = 0x34
	entryCopyCountOffset    = 0x35
	entryBlockOffset        = 0x36
	entryLengthOffset       = 0x38
	entryPad2Offset         = 0x3A
	entryCommentOffset      = 0x3C
)

// FilenameSize is the fixed width of the filename field.
const FilenameSize = 32

// Permission bits.
const (
	PermissionPublic uint8 = 0x04
	PermissionNoCopy uint8 = 0x08
	PermissionNoMove uint8 = 0x10
)

// DirEntry is one 64-byte directory entry describing a stored file.
type DirEntry struct {
	GameCode       [4]byte
	Company        [2]byte
	Pad            uint8
	BannerFormat   uint8
	Filename       [FilenameSize]byte
	LastModified   uint32 // seconds since 2000-01-01
	IconAddress    uint32
	IconFormat     uint16
	IconSpeed      uint16
	Permission     uint8
	CopyCount      uint8
	Block          uint16
	Length         uint16
	Pad2           uint16
	CommentAddress uint32
}

// EmptyDirEntry returns an unused directory slot, all bytes 0xFF.
func EmptyDirEntry() DirEntry {
	var raw [DirEntrySize]byte
	for i := range raw {
		raw[i] = 0xFF
	}
	e, _ := DecodeDirEntry(raw[:])
	return e
}

// DecodeDirEntry parses a directory entry from its 64-byte on-card form.
func DecodeDirEntry(data []byte) (DirEntry, error) {
	var e DirEntry
	if len(data) < DirEntrySize {
		return e, fmt.Errorf("directory entry needs %d bytes, got %d", DirEntrySize, len(data))
	}

	copy(e.GameCode[:], data[entryGameCodeOffset:])
	copy(e.Company[:], data[entryCompanyOffset:])
	e.Pad = data[entryPadOffset]
	e.BannerFormat = data[entryBannerFormatOffset]
	copy(e.Filename[:], data[entryFilenameOffset:entryFilenameOffset+FilenameSize])
	e.LastModified = binary.BigEndian.Uint32(data[entryModTimeOffset:])
	e.IconAddress = binary.BigEndian.Uint32(data[entryIconAddressOffset:])
	e.IconFormat = binary.BigEndian.Uint16(data[entryIconFormatOffset:])
	e.IconSpeed = binary.BigEndian.Uint16(data[entryIconSpeedOffset:])
	e.Permission = data[entryPermissionOffset]
	e.CopyCount = data[entryCopyCountOffset]
	e.Block = binary.BigEndian.Uint16(data[entryBlockOffset:])
	e.Length = binary.BigEndian.Uint16(data[entryLengthOffset:])
	e.Pad2 = binary.BigEndian.Uint16(data[entryPad2Offset:])
	e.CommentAddress = binary.BigEndian.Uint32(data[entryCommentOffset:])

	return e, nil
}

// MarshalBinary encodes the entry into its 64-byte on-card form.
func (e DirEntry) MarshalBinary() ([]byte, error) {
	data := make([]byte, DirEntrySize)
	e.encode(data)
	return data, nil
}

// UnmarshalBinary decodes the entry from its 64-byte on-card form.
func (e *DirEntry) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeDirEntry(data)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

func (e *DirEntry) encode(data []byte) {
	copy(data[entryGameCodeOffset:], e.GameCode[:])
	copy(data[entryCompanyOffset:], e.Company[:])
	data[entryPadOffset] = e.Pad
	data[entryBannerFormatOffset] = e.BannerFormat
	copy(data[entryFilenameOffset:], e.Filename[:])
	binary.BigEndian.PutUint32(data[entryModTimeOffset:], e.LastModified)
	binary.BigEndian.PutUint32(data[entryIconAddressOffset:], e.IconAddress)
	binary.BigEndian.PutUint16(data[entryIconFormatOffset:], e.IconFormat)
	binary.BigEndian.PutUint16(data[entryIconSpeedOffset:], e.IconSpeed)
	data[entryPermissionOffset] = e.Permission
	data[entryCopyCountOffset] = e.CopyCount
	binary.BigEndian.PutUint16(data[entryBlockOffset:], e.Block)
	binary.BigEndian.PutUint16(data[entryLengthOffset:], e.Length)
	binary.BigEndian.PutUint16(data[entryPad2Offset:], e.Pad2)
	binary.BigEndian.PutUint32(data[entryCommentOffset:], e.CommentAddress)
}

// IsEmpty reports whether the slot is unused.
func (e *DirEntry) IsEmpty() bool {
	return bytes.Equal(e.GameCode[:], []byte{0xFF, 0xFF, 0xFF, 0xFF})
}

// GameCodeString returns the game code as text.
func (e *DirEntry) GameCodeString() string {
	return string(e.GameCode[:])
}

// CompanyString returns the company code as text.
func (e *DirEntry) CompanyString() string {
	return string(e.Company[:])
}

// FilenameString returns the filename up to its terminating NUL.
func (e *DirEntry) FilenameString() string {
	return string(common.CString(e.Filename[:]))
}

// SetFilename stores name in the fixed-width filename field.
func (e *DirEntry) SetFilename(name string) {
	common.PutCString(e.Filename[:], name)
}

// ModTime converts LastModified into a time value.
func (e *DirEntry) ModTime() time.Time {
	return gcnEpoch.Add(time.Duration(e.LastModified) * time.Second)
}

// StartsInUserArea reports whether the entry's first block lies in the user area
// of a card with totalBlocks blocks.
func (e *DirEntry) StartsInUserArea(totalBlocks int) bool {
	return int(e.Block) >= ReservedBlocks && int(e.Block) < totalBlocks
}
