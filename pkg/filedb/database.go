// Package filedb loads signature databases describing the comment layout of
// known GameCube save files, indexed by the address of that comment.
package filedb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hansbonini/gcnrecover/pkg/common"
)

// RootElement is the name of the root element (XML) or root key (YAML) of a
// signature database.
const RootElement = "GcnMcFileDb"

// ErrNotSignatureDatabase is returned when a file is not a well-formed
// signature database.
var ErrNotSignatureDatabase = errors.New("not a signature database")

// Format selects the database syntax.
type Format int

const (
	FormatAuto Format = iota
	FormatXML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "XML"
	case FormatYAML:
		return "YAML"
	default:
		return "auto"
	}
}

// DetectFormat picks a format from the file extension, falling back to the
// first non-blank byte of data.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}
	return FormatYAML
}

// RecordWarning is a non-fatal problem with one record. The record is kept
// in a degraded form.
type RecordWarning struct {
	Record   int // zero-based position in the file
	GameCode string
	Field    string
	Message  string
}

func (w RecordWarning) String() string {
	return fmt.Sprintf("record %d (%s) %s: %s", w.Record, w.GameCode, w.Field, w.Message)
}

// rawSearch and rawRecord hold one record as written in the file, before
// validation. Both syntaxes decode into them.
type rawSearch struct {
	Address  string `xml:"address" yaml:"address"`
	GameDesc string `xml:"gamedesc" yaml:"gamedesc"`
	FileDesc string `xml:"filedesc" yaml:"filedesc"`
}

type rawDirEntry struct {
	Filename string `xml:"filename" yaml:"filename"`
	Length   string `xml:"length" yaml:"length"`
}

type rawRecord struct {
	Description string       `xml:"description" yaml:"description"`
	GameCode    string       `xml:"gamecode" yaml:"gamecode"`
	Company     string       `xml:"company" yaml:"company"`
	Search      rawSearch    `xml:"search" yaml:"search"`
	DirEntry    *rawDirEntry `xml:"dirEntry" yaml:"dirEntry"`

	decodeErr error // set when the record only partly decoded
}

// Database is an ordered set of file definitions indexed by search
// address. It is safe for concurrent readers once loaded; Load must not run
// concurrently with queries.
type Database struct {
	path      string
	defs      []*FileDefinition
	byAddress map[uint32][]*FileDefinition
	addresses []uint32
	warnings  []RecordWarning
}

// New returns an empty database.
func New() *Database {
	return &Database{byAddress: make(map[uint32][]*FileDefinition)}
}

// Load reads a database from path.
func Load(path string) (*Database, error) {
	db := New()
	if err := db.Load(path); err != nil {
		return nil, err
	}
	return db, nil
}

// Parse builds a database from data.
func Parse(data []byte, format Format) (*Database, error) {
	db := New()
	if err := db.parse(data, format); err != nil {
		return nil, err
	}
	return db, nil
}

// Load replaces the contents of db with the database at path. The previous
// definitions are discarded before reading, so a failed load leaves db
// empty.
func (db *Database) Load(path string) error {
	db.reset()

	data, err := os.ReadFile(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToReadDatabase, err)
	}

	if err := db.parse(data, DetectFormat(path, data)); err != nil {
		return common.FormatError(common.ErrFailedToLoadDatabase, err)
	}
	db.path = path

	common.LogInfo(common.InfoDatabaseLoaded, len(db.defs), len(db.addresses), path)
	return nil
}

func (db *Database) reset() {
	db.path = ""
	db.defs = nil
	db.byAddress = make(map[uint32][]*FileDefinition)
	db.addresses = nil
	db.warnings = nil
}

func (db *Database) parse(data []byte, format Format) error {
	db.reset()

	if format == FormatAuto {
		format = DetectFormat("", data)
	}

	var records []rawRecord
	var err error
	switch format {
	case FormatXML:
		records, err = decodeXML(data)
	case FormatYAML:
		records, err = decodeYAML(data)
	default:
		err = common.FormatErrorString(common.ErrUnknownDatabaseFormat, "%d", int(format))
	}
	if err != nil {
		return err
	}

	for i := range records {
		db.add(db.buildDefinition(i, &records[i]))
	}
	return nil
}

func (db *Database) add(def *FileDefinition) {
	addr := def.Search.Address
	if _, ok := db.byAddress[addr]; !ok {
		idx, _ := slices.BinarySearch(db.addresses, addr)
		db.addresses = slices.Insert(db.addresses, idx, addr)
	}
	db.byAddress[addr] = append(db.byAddress[addr], def)
	db.defs = append(db.defs, def)
}

func (db *Database) warn(record int, gameCode, field, format string, args ...interface{}) {
	w := RecordWarning{
		Record:   record,
		GameCode: gameCode,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
	db.warnings = append(db.warnings, w)
	common.LogWarn(common.WarnRecord, w.Record, w.GameCode, w.Field, w.Message)
}

// buildDefinition validates a raw record. Problems are recorded as
// warnings and the affected field is degraded; a definition is always
// returned.
func (db *Database) buildDefinition(idx int, raw *rawRecord) *FileDefinition {
	def := &FileDefinition{
		Description: strings.TrimSpace(raw.Description),
		GameCode:    strings.TrimSpace(raw.GameCode),
		Company:     strings.TrimSpace(raw.Company),
	}

	if raw.decodeErr != nil {
		db.warn(idx, def.GameCode, "record", common.WarnMalformedRecord, raw.decodeErr)
	}

	if code := []rune(def.GameCode); len(code) != 4 {
		db.warn(idx, def.GameCode, "gamecode", common.WarnInvalidGameCode, def.GameCode)
	} else if region := RegionFromChar(code[3]); region == RegionUnknown {
		db.warn(idx, def.GameCode, "gamecode", common.WarnUnknownRegion, def.GameCode, string(code[3]))
	} else {
		def.Regions = RegionsOf(region)
	}

	if address, err := common.ParseUint32Literal(raw.Search.Address); err != nil {
		db.warn(idx, def.GameCode, "address", common.WarnInvalidAddress, raw.Search.Address, err)
	} else {
		def.Search.Address = address
	}

	def.Search.GameDesc = db.compile(idx, def.GameCode, "gamedesc", raw.Search.GameDesc)
	def.Search.FileDesc = db.compile(idx, def.GameCode, "filedesc", raw.Search.FileDesc)

	if raw.DirEntry != nil {
		def.DirEntry.Filename = strings.TrimSpace(raw.DirEntry.Filename)
		if s := strings.TrimSpace(raw.DirEntry.Length); s != "" {
			length, err := strconv.ParseUint(s, 0, 16)
			if err != nil {
				db.warn(idx, def.GameCode, "length", common.WarnInvalidLength, s, err)
			} else {
				def.DirEntry.Length = uint16(length)
			}
		}
	}

	common.LogDebug(common.DebugRecordLoaded, idx, def.GameCode, def.Company, def.Search.Address, def.Description)
	return def
}

func (db *Database) compile(idx int, gameCode, field, pattern string) Matcher {
	m := NewMatcher(pattern)
	switch m.State() {
	case MatcherEmpty:
		db.warn(idx, gameCode, field, common.WarnEmptyPattern, field)
	case MatcherInvalid:
		db.warn(idx, gameCode, field, common.WarnInvalidPattern, field, pattern, m.Err())
	}
	return m
}

// Path returns the file the database was loaded from, if any.
func (db *Database) Path() string {
	return db.path
}

// Lookup returns the definitions searched at address, in load order.
func (db *Database) Lookup(address uint32) []*FileDefinition {
	return slices.Clone(db.byAddress[address])
}

// Addresses returns the distinct search addresses in ascending order.
func (db *Database) Addresses() []uint32 {
	return slices.Clone(db.addresses)
}

// Len returns the number of definitions.
func (db *Database) Len() int {
	return len(db.defs)
}

// Definitions returns every definition in load order.
func (db *Database) Definitions() []*FileDefinition {
	return slices.Clone(db.defs)
}

// Warnings returns the problems found while loading.
func (db *Database) Warnings() []RecordWarning {
	return slices.Clone(db.warnings)
}
