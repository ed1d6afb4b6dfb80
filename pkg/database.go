package pkg

import (
	"fmt"
	"io"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/hansbonini/gcnrecover/pkg/filedb"
)

// DatabaseProcessor handles signature database validation.
type DatabaseProcessor struct{}

// NewDatabaseProcessor creates a new database processor instance.
func NewDatabaseProcessor() *DatabaseProcessor {
	return &DatabaseProcessor{}
}

// Load reads a signature database. An empty path yields an empty database.
func (p *DatabaseProcessor) Load(path string) (*filedb.Database, error) {
	if path == "" {
		common.LogWarn(common.WarnNoDatabaseFile)
		return filedb.New(), nil
	}

	return filedb.Load(path)
}

// Check loads a database and prints its definitions grouped by search
// address, followed by the record warnings. Warnings do not fail the check.
func (p *DatabaseProcessor) Check(path string, w io.Writer) error {
	db, err := p.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d definitions at %d search addresses\n", db.Len(), len(db.Addresses()))
	for _, address := range db.Addresses() {
		defs := db.Lookup(address)
		fmt.Fprintf(w, "0x%04X (%d)\n", address, len(defs))
		for _, def := range defs {
			fmt.Fprintf(w, "  %-4s%-2s  %-15s  %s\n", def.GameCode, def.Company, def.Regions, def.Description)
		}
	}

	warnings := db.Warnings()
	fmt.Fprintf(w, "%d warnings\n", len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}

	return nil
}
