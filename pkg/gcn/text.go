package gcn

import (
	"strings"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// decoderFor returns the text decoding matching a card encoding. Unknown
// encodings are treated as ANSI.
func decoderFor(enc Encoding) encoding.Encoding {
	if enc == EncodingSJIS {
		return japanese.ShiftJIS
	}
	return charmap.Windows1252
}

// DecodeText converts a NUL-terminated card string into UTF-8.
func DecodeText(field []byte, enc Encoding) string {
	raw := common.CString(field)
	if len(raw) == 0 {
		return ""
	}

	decoded, err := decoderFor(enc).NewDecoder().Bytes(raw)
	if err != nil {
		// Fall back to the raw bytes with invalid sequences replaced.
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(decoded)
}

// EncodeText converts UTF-8 text into the card encoding. Characters that
// cannot be represented are replaced.
func EncodeText(s string, enc Encoding) []byte {
	encoder := encoding.ReplaceUnsupported(decoderFor(enc).NewEncoder())
	encoded, err := encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

// Comment is the pair of descriptions stored at a file's comment address.
type Comment struct {
	GameDesc string
	FileDesc string
}

// DecodeComment splits a 64-byte comment into its two descriptions.
func DecodeComment(data []byte, enc Encoding) Comment {
	if len(data) < CommentSize {
		return Comment{}
	}
	return Comment{
		GameDesc: DecodeText(data[:CommentFieldSize], enc),
		FileDesc: DecodeText(data[CommentFieldSize:CommentSize], enc),
	}
}
