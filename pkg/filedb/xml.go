package filedb

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/hansbonini/gcnrecover/pkg/common"
)

type xmlDatabase struct {
	Files []rawRecord `xml:"file"`
}

// decodeXML reads the records of an XML database. The root element must
// be GcnMcFileDb.
func decodeXML(data []byte) ([]rawRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no root element", ErrNotSignatureDatabase)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotSignatureDatabase, common.ErrFailedToParseXML, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != RootElement {
			return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrNotSignatureDatabase, start.Name.Local)
		}

		var db xmlDatabase
		if err := dec.DecodeElement(&db, &start); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotSignatureDatabase, common.ErrFailedToParseXML, err)
		}
		return db.Files, nil
	}
}
