package common

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ReadBytes returns a copy of count bytes starting at offset
func ReadBytes(data []byte, offset, count int) ([]byte, error) {
	if offset < 0 || count < 0 || offset+count > len(data) {
		return nil, fmt.Errorf("expected to read %d bytes at offset %d, have %d", count, offset, len(data))
	}
	buffer := make([]byte, count)
	copy(buffer, data[offset:offset+count])
	return buffer, nil
}

// CString returns the bytes of a NUL-terminated field up to the first NUL
func CString(field []byte) []byte {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return field[:i]
	}
	return field
}

// PutCString copies s into a fixed-size field, padding the remainder with NULs.
// Strings longer than the field are truncated.
func PutCString(field []byte, s string) {
	n := copy(field, s)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

// ParseUint32Literal parses an unsigned integer honoring the usual
// numeric-literal prefixes ("0x" hex, leading "0" octal, decimal otherwise).
func ParseUint32Literal(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric literal")
	}

	value, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}
