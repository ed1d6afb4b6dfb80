package filedb

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const testXML = `<?xml version="1.0" encoding="UTF-8"?>
<GcnMcFileDb>
	<file>
		<description>Super Mario Sunshine</description>
		<gamecode>GMSE</gamecode>
		<company>01</company>
		<search>
			<address>0x0000</address>
			<gamedesc>^Super Mario Sunshine$</gamedesc>
			<filedesc>^.*$</filedesc>
		</search>
		<dirEntry>
			<filename>super_mario_sunshine</filename>
			<length>7</length>
		</dirEntry>
	</file>
	<file>
		<description>Super Mario Sunshine (alternate)</description>
		<gamecode>GMSE</gamecode>
		<company>01</company>
		<search>
			<address>0</address>
			<gamedesc>^Super Mario</gamedesc>
			<filedesc>.*</filedesc>
		</search>
	</file>
	<file>
		<description>Pikmin</description>
		<gamecode>GPIJ</gamecode>
		<company>01</company>
		<notes>ignored</notes>
		<search>
			<address>0x1C40</address>
			<gamedesc>^Pikmin$</gamedesc>
			<filedesc>^Save</filedesc>
		</search>
	</file>
	<file>
		<description>Animal Crossing</description>
		<gamecode>GAFP</gamecode>
		<company>01</company>
		<search>
			<address>0x200</address>
			<gamedesc>^Animal Crossing$</gamedesc>
			<filedesc>^Town</filedesc>
		</search>
	</file>
</GcnMcFileDb>
`

const testYAML = `GcnMcFileDb:
  file:
    - description: Super Mario Sunshine
      gamecode: GMSE
      company: "01"
      search:
        address: 0x0000
        gamedesc: ^Super Mario Sunshine$
        filedesc: ^.*$
      dirEntry:
        filename: super_mario_sunshine
        length: 7
    - description: Super Mario Sunshine (alternate)
      gamecode: GMSE
      company: "01"
      search:
        address: 0
        gamedesc: ^Super Mario
        filedesc: .*
    - description: Pikmin
      gamecode: GPIJ
      company: "01"
      notes: ignored
      search:
        address: 0x1C40
        gamedesc: ^Pikmin$
        filedesc: ^Save
    - description: Animal Crossing
      gamecode: GAFP
      company: "01"
      search:
        address: 0x200
        gamedesc: ^Animal Crossing$
        filedesc: ^Town
`

// xmlRecord builds a single-record XML database.
func xmlRecord(gameCode, address, gameDesc, fileDesc string) string {
	return `<GcnMcFileDb><file>
<description>Test</description>
<gamecode>` + gameCode + `</gamecode>
<company>01</company>
<search><address>` + address + `</address><gamedesc>` + gameDesc + `</gamedesc><filedesc>` + fileDesc + `</filedesc></search>
</file></GcnMcFileDb>`
}

func writeDatabase(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write database: %v", err)
	}
	return path
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func descriptions(defs []*FileDefinition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Description
	}
	return names
}

func TestLoad_XML(t *testing.T) {
	captureLog(t)

	db, err := Load(writeDatabase(t, "GcnMcFileDb.xml", testXML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if db.Len() != 4 {
		t.Errorf("Len() = %d, want 4", db.Len())
	}
	if got := db.Addresses(); !slices.Equal(got, []uint32{0x0000, 0x0200, 0x1C40}) {
		t.Errorf("Addresses() = %#v", got)
	}
	if len(db.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", db.Warnings())
	}

	// Records sharing an address keep their load order.
	got := descriptions(db.Lookup(0))
	want := []string{"Super Mario Sunshine", "Super Mario Sunshine (alternate)"}
	if !slices.Equal(got, want) {
		t.Errorf("Lookup(0) = %v, want %v", got, want)
	}

	if len(db.Lookup(0x1C41)) != 0 {
		t.Error("Lookup() must use exact address equality")
	}

	sunshine := db.Lookup(0)[0]
	if sunshine.GameCode != "GMSE" || sunshine.Company != "01" {
		t.Errorf("codes = %q/%q", sunshine.GameCode, sunshine.Company)
	}
	if !sunshine.Regions.Has(RegionUSA) || sunshine.Region() != RegionUSA {
		t.Errorf("Regions = %v, want USA", sunshine.Regions)
	}
	if sunshine.DirEntry.Filename != "super_mario_sunshine" || sunshine.DirEntry.Length != 7 {
		t.Errorf("DirEntry = %+v", sunshine.DirEntry)
	}
	if !sunshine.Matches("Super Mario Sunshine", "") {
		t.Error("definition should match its own descriptions")
	}

	pikmin := db.Lookup(0x1C40)[0]
	if !pikmin.Regions.Has(RegionJPN) || pikmin.DirEntry != (DirEntryHint{}) {
		t.Errorf("Pikmin = %+v", pikmin)
	}

	if got := descriptions(db.Definitions()); got[0] != "Super Mario Sunshine" || got[3] != "Animal Crossing" {
		t.Errorf("Definitions() = %v", got)
	}
}

func TestLoad_YAMLMatchesXML(t *testing.T) {
	captureLog(t)

	fromXML, err := Load(writeDatabase(t, "db.xml", testXML))
	if err != nil {
		t.Fatalf("Load(xml) failed: %v", err)
	}
	fromYAML, err := Load(writeDatabase(t, "db.yaml", testYAML))
	if err != nil {
		t.Fatalf("Load(yaml) failed: %v", err)
	}

	if !slices.Equal(fromXML.Addresses(), fromYAML.Addresses()) {
		t.Errorf("addresses differ: %v vs %v", fromXML.Addresses(), fromYAML.Addresses())
	}

	xmlDefs, yamlDefs := fromXML.Definitions(), fromYAML.Definitions()
	if len(xmlDefs) != len(yamlDefs) {
		t.Fatalf("definition counts differ: %d vs %d", len(xmlDefs), len(yamlDefs))
	}
	for i := range xmlDefs {
		x, y := xmlDefs[i], yamlDefs[i]
		if x.Description != y.Description || x.GameCode != y.GameCode || x.Company != y.Company ||
			x.Regions != y.Regions || x.Search.Address != y.Search.Address || x.DirEntry != y.DirEntry ||
			x.Search.GameDesc.Pattern() != y.Search.GameDesc.Pattern() ||
			x.Search.FileDesc.Pattern() != y.Search.FileDesc.Pattern() {
			t.Errorf("record %d differs:\n xml: %+v\nyaml: %+v", i, x, y)
		}
	}
}

func TestParse_FormatDetection(t *testing.T) {
	captureLog(t)

	for _, data := range []string{testXML, testYAML} {
		db, err := Parse([]byte(data), FormatAuto)
		if err != nil {
			t.Fatalf("Parse() failed: %v", err)
		}
		if db.Len() != 4 {
			t.Errorf("Len() = %d, want 4", db.Len())
		}
	}

	testCases := []struct {
		path     string
		data     string
		expected Format
	}{
		{"db.xml", "", FormatXML},
		{"db.YML", "", FormatYAML},
		{"db.yaml", "<x/>", FormatYAML},
		{"db", "  \n<GcnMcFileDb/>", FormatXML},
		{"db", "GcnMcFileDb: {}", FormatYAML},
	}
	for _, tc := range testCases {
		if got := DetectFormat(tc.path, []byte(tc.data)); got != tc.expected {
			t.Errorf("DetectFormat(%q, %q) = %v, want %v", tc.path, tc.data, got, tc.expected)
		}
	}
}

func TestLoad_RecordWarnings(t *testing.T) {
	testCases := []struct {
		name     string
		xml      string
		field    string
		regions  Regions
		address  uint32
		gameDesc MatcherState
		fileDesc MatcherState
	}{
		{
			name:     "short game code",
			xml:      xmlRecord("GMS", "0x40", "^A$", "^B$"),
			field:    "gamecode",
			address:  0x40,
			gameDesc: MatcherCompiled,
			fileDesc: MatcherCompiled,
		},
		{
			name:     "long game code",
			xml:      xmlRecord("GMSEX", "0x40", "^A$", "^B$"),
			field:    "gamecode",
			address:  0x40,
			gameDesc: MatcherCompiled,
			fileDesc: MatcherCompiled,
		},
		{
			name:     "unknown region character",
			xml:      xmlRecord("GMSD", "0x40", "^A$", "^B$"),
			field:    "gamecode",
			address:  0x40,
			gameDesc: MatcherCompiled,
			fileDesc: MatcherCompiled,
		},
		{
			name:     "empty game description",
			xml:      xmlRecord("GMSE", "0x40", "", "^B$"),
			field:    "gamedesc",
			regions:  RegionsOf(RegionUSA),
			address:  0x40,
			gameDesc: MatcherEmpty,
			fileDesc: MatcherCompiled,
		},
		{
			name:     "invalid file description",
			xml:      xmlRecord("GMSE", "0x40", "^A$", "(B"),
			field:    "filedesc",
			regions:  RegionsOf(RegionUSA),
			address:  0x40,
			gameDesc: MatcherCompiled,
			fileDesc: MatcherInvalid,
		},
		{
			name:     "invalid address",
			xml:      xmlRecord("GMSE", "0xZZ", "^A$", "^B$"),
			field:    "address",
			regions:  RegionsOf(RegionUSA),
			address:  0,
			gameDesc: MatcherCompiled,
			fileDesc: MatcherCompiled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLog(t)

			db, err := Parse([]byte(tc.xml), FormatXML)
			if err != nil {
				t.Fatalf("Parse() should not fail on a record problem: %v", err)
			}
			if db.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", db.Len())
			}

			warnings := db.Warnings()
			if len(warnings) != 1 || warnings[0].Field != tc.field || warnings[0].Record != 0 {
				t.Errorf("Warnings() = %v, want one %s warning", warnings, tc.field)
			}
			if !strings.Contains(buf.String(), "[WARN]") {
				t.Errorf("warning should be logged, got: %q", buf.String())
			}

			def := db.Definitions()[0]
			if def.Regions != tc.regions {
				t.Errorf("Regions = %v, want %v", def.Regions, tc.regions)
			}
			if def.Search.Address != tc.address {
				t.Errorf("Address = 0x%X, want 0x%X", def.Search.Address, tc.address)
			}
			if def.Search.GameDesc.State() != tc.gameDesc || def.Search.FileDesc.State() != tc.fileDesc {
				t.Errorf("matcher states = %v/%v, want %v/%v",
					def.Search.GameDesc.State(), def.Search.FileDesc.State(), tc.gameDesc, tc.fileDesc)
			}
			if len(db.Lookup(tc.address)) != 1 {
				t.Error("degraded record must stay indexed")
			}
		})
	}
}

func TestLoad_YAMLMalformedRecord(t *testing.T) {
	buf := captureLog(t)

	data := `GcnMcFileDb:
  file:
    - description: Super Mario Sunshine
      gamecode: GMSE
      company: "01"
      search:
        address: 0x40
        gamedesc: ^Super Mario Sunshine$
        filedesc: .*
    - description: Pikmin
      gamecode: GPIJ
      company: "01"
      search:
        address: [1, 2]
        gamedesc: ^Pikmin$
        filedesc: .*
`
	db, err := Parse([]byte(data), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() should not fail on one bad record: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", db.Len())
	}

	good := db.Lookup(0x40)
	if len(good) != 1 || !good[0].Matches("Super Mario Sunshine", "Shine 20") {
		t.Errorf("Lookup(0x40) = %v, want the well-formed record", descriptions(good))
	}

	warnings := db.Warnings()
	fields := make([]string, len(warnings))
	for i, w := range warnings {
		if w.Record != 1 {
			t.Errorf("warning %v should belong to record 1", w)
		}
		fields[i] = w.Field
	}
	if !slices.Equal(fields, []string{"record", "address"}) {
		t.Errorf("warning fields = %v, want [record address]", fields)
	}

	degraded := db.Definitions()[1]
	if degraded.Search.Address != 0 || !degraded.Regions.Has(RegionJPN) {
		t.Errorf("degraded record: address 0x%X regions %v, want 0x0 JPN", degraded.Search.Address, degraded.Regions)
	}
	if !strings.Contains(buf.String(), "does not fit the schema") {
		t.Errorf("malformed record should be logged, got: %q", buf.String())
	}
}

func TestLoad_MultiByteGameCode(t *testing.T) {
	captureLog(t)

	db, err := Parse([]byte(xmlRecord("ＧＭＳE", "0x40", "^A$", "^B$")), FormatXML)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(db.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none for a four-character code", db.Warnings())
	}
	def := db.Definitions()[0]
	if !def.Regions.Has(RegionUSA) || def.Region() != RegionUSA {
		t.Errorf("Regions = %v, want USA", def.Regions)
	}
}

func TestLoad_EmptyPatternNeverMatches(t *testing.T) {
	captureLog(t)

	db, err := Parse([]byte(xmlRecord("GMSE", "0", "", "")), FormatXML)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	def := db.Definitions()[0]
	for _, text := range []string{"", "Test", " "} {
		if def.Matches(text, text) {
			t.Errorf("definition with empty patterns matched %q", text)
		}
	}
}

func TestLoad_InvalidPatternDegradesOnlyItsRecord(t *testing.T) {
	captureLog(t)

	data := strings.Replace(testXML, "<filedesc>^Save</filedesc>", "<filedesc>[Save</filedesc>", 1)
	db, err := Parse([]byte(data), FormatXML)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if db.Len() != 4 || len(db.Warnings()) != 1 {
		t.Fatalf("Len()=%d Warnings()=%v", db.Len(), db.Warnings())
	}
	if db.Lookup(0x1C40)[0].Matches("Pikmin", "Save") {
		t.Error("record with an invalid pattern must never match")
	}
	if !db.Lookup(0x200)[0].Matches("Animal Crossing", "Town data") {
		t.Error("other records must keep matching")
	}
}

func TestLoad_NumericLiterals(t *testing.T) {
	captureLog(t)

	testCases := []struct {
		literal  string
		expected uint32
	}{
		{"64", 64},
		{"0x40", 0x40},
		{"0X1c40", 0x1C40},
		{"0100", 0100},
		{" 0x200 ", 0x200},
	}

	for _, tc := range testCases {
		t.Run(tc.literal, func(t *testing.T) {
			db, err := Parse([]byte(xmlRecord("GMSE", tc.literal, "^A$", "^B$")), FormatXML)
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			if got := db.Addresses(); !slices.Equal(got, []uint32{tc.expected}) {
				t.Errorf("Addresses() = %v, want [%d]", got, tc.expected)
			}
		})
	}
}

func TestLoad_FatalErrors(t *testing.T) {
	captureLog(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}

	testCases := []struct {
		name string
		file string
		data string
	}{
		{"wrong XML root", "db.xml", "<Database><file/></Database>"},
		{"malformed XML", "db.xml", "<GcnMcFileDb><file>"},
		{"empty XML", "db.xml", ""},
		{"wrong YAML root", "db.yaml", "files:\n  - description: x\n"},
		{"malformed YAML", "db.yaml", "GcnMcFileDb: [unterminated\n"},
		{"scalar YAML root", "db.yaml", "GcnMcFileDb: 5\n"},
		{"sequence YAML root", "db.yaml", "GcnMcFileDb:\n  - file: x\n"},
		{"file is not a sequence", "db.yaml", "GcnMcFileDb:\n  file: x\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeDatabase(t, tc.file, tc.data))
			if !errors.Is(err, ErrNotSignatureDatabase) {
				t.Errorf("Load() error = %v, want ErrNotSignatureDatabase", err)
			}
		})
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte(testXML), Format(9))
	if err == nil || !strings.Contains(err.Error(), "unknown file database format: 9") {
		t.Errorf("Parse() error = %v, want unknown format", err)
	}
}

func TestDatabase_ReloadDiscards(t *testing.T) {
	captureLog(t)

	db := New()
	if err := db.Load(writeDatabase(t, "db.xml", testXML)); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	second := writeDatabase(t, "second.xml", xmlRecord("GZLE", "0x80", "^Zelda$", ".*"))
	if err := db.Load(second); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if db.Len() != 1 || !slices.Equal(db.Addresses(), []uint32{0x80}) {
		t.Errorf("after reload Len()=%d Addresses()=%v, want only the second database", db.Len(), db.Addresses())
	}
	if db.Path() != second {
		t.Errorf("Path() = %q, want %q", db.Path(), second)
	}

	if err := db.Load(writeDatabase(t, "bad.xml", "<nope/>")); err == nil {
		t.Fatal("Load() should fail")
	}
	if db.Len() != 0 || len(db.Addresses()) != 0 || len(db.Lookup(0x80)) != 0 {
		t.Error("a failed reload must leave the database empty")
	}
}
