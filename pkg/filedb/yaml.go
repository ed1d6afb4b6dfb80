package filedb

import (
	"fmt"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"gopkg.in/yaml.v3"
)

type yamlDatabase struct {
	Root *yaml.Node `yaml:"GcnMcFileDb"`
}

type yamlBody struct {
	Files []yaml.Node `yaml:"file"`
}

// decodeYAML reads the records of a YAML database: a GcnMcFileDb mapping
// holding a file sequence. Records are decoded one by one; a record that
// does not fit the schema keeps whatever fields did decode and carries the
// error for the caller to report.
func decodeYAML(data []byte) ([]rawRecord, error) {
	var db yamlDatabase
	if err := yaml.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotSignatureDatabase, common.ErrFailedToParseYAML, err)
	}
	if db.Root == nil {
		return nil, fmt.Errorf("%w: missing %s root key", ErrNotSignatureDatabase, RootElement)
	}
	if db.Root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping (line %d)", ErrNotSignatureDatabase, RootElement, db.Root.Line)
	}

	var body yamlBody
	if err := db.Root.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotSignatureDatabase, common.ErrFailedToParseYAML, err)
	}

	records := make([]rawRecord, len(body.Files))
	for i := range body.Files {
		if err := body.Files[i].Decode(&records[i]); err != nil {
			records[i].decodeErr = err
		}
	}
	return records, nil
}
