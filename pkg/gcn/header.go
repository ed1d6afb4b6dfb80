package gcn

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Encoding is the character encoding declared in the card header.
type Encoding uint16

// Supported memory card encodings.
const (
	EncodingANSI Encoding = iota
	EncodingSJIS
)

func (e Encoding) String() string {
	switch e {
	case EncodingANSI:
		return "ANSI"
	case EncodingSJIS:
		return "Shift-JIS"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(e))
	}
}

// Header field offsets within block 0.
const (
	headerSerialOffset    = 0x000
	headerFormatOffset    = 0x00C
	headerSramBiasOffset  = 0x014
	headerSramLangOffset  = 0x018
	headerUnknownOffset   = 0x01C
	headerDeviceOffset    = 0x020
	headerSizeOffset      = 0x022
	headerEncodingOffset  = 0x024
	headerChecksumOffset  = 0x1FC
	headerChecksummedSize = 0x1FC
)

// gcnEpoch is the origin of all card timestamps.
var gcnEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// osTimerClock is the console time base frequency, a quarter of the bus clock.
const osTimerClock = 40500000

// Header is the decoded card header stored in block 0.
type Header struct {
	Serial       [12]byte
	FormatTime   uint64 // OSTime ticks
	SramBias     uint32
	SramLanguage uint32
	Unknown      uint32
	DeviceID     uint16
	SizeMbit     uint16
	Encoding     Encoding
	Checksum     Checksum
}

// decodeHeader parses the header from the first block of an image.
func decodeHeader(block []byte) Header {
	var h Header
	copy(h.Serial[:], block[headerSerialOffset:headerSerialOffset+12])
	h.FormatTime = binary.BigEndian.Uint64(block[headerFormatOffset:])
	h.SramBias = binary.BigEndian.Uint32(block[headerSramBiasOffset:])
	h.SramLanguage = binary.BigEndian.Uint32(block[headerSramLangOffset:])
	h.Unknown = binary.BigEndian.Uint32(block[headerUnknownOffset:])
	h.DeviceID = binary.BigEndian.Uint16(block[headerDeviceOffset:])
	h.SizeMbit = binary.BigEndian.Uint16(block[headerSizeOffset:])
	h.Encoding = Encoding(binary.BigEndian.Uint16(block[headerEncodingOffset:]))
	h.Checksum = readChecksum(block, headerChecksumOffset)
	return h
}

// encode writes the header fields into block, leaving the checksum untouched.
func (h *Header) encode(block []byte) {
	copy(block[headerSerialOffset:], h.Serial[:])
	binary.BigEndian.PutUint64(block[headerFormatOffset:], h.FormatTime)
	binary.BigEndian.PutUint32(block[headerSramBiasOffset:], h.SramBias)
	binary.BigEndian.PutUint32(block[headerSramLangOffset:], h.SramLanguage)
	binary.BigEndian.PutUint32(block[headerUnknownOffset:], h.Unknown)
	binary.BigEndian.PutUint16(block[headerDeviceOffset:], h.DeviceID)
	binary.BigEndian.PutUint16(block[headerSizeOffset:], h.SizeMbit)
	binary.BigEndian.PutUint16(block[headerEncodingOffset:], uint16(h.Encoding))
}

// FormattedAt converts FormatTime into a time value.
func (h *Header) FormattedAt() time.Time {
	return gcnEpoch.Add(time.Duration(h.FormatTime/osTimerClock) * time.Second)
}

// headerChecksumValid recomputes the header checksum and compares it with
// the stored pair.
func headerChecksumValid(block []byte) (bool, Checksum) {
	computed := ComputeChecksum(block[:headerChecksummedSize])
	return computed == readChecksum(block, headerChecksumOffset), computed
}
