package pkg

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hansbonini/gcnrecover/pkg/common"
	"github.com/hansbonini/gcnrecover/pkg/gcn"
	"gopkg.in/yaml.v3"
)

// ScanReport is the YAML document written after a scan.
type ScanReport struct {
	Card           ScanReportCard    `yaml:"card"`
	TotalRecovered int               `yaml:"total_recovered"`
	Entries        []ScanReportEntry `yaml:"entries"`
}

// ScanReportCard summarizes the scanned card.
type ScanReportCard struct {
	SizeMbit         uint16 `yaml:"size_mbit"`
	TotalBlocks      int    `yaml:"total_blocks"`
	UserBlocks       int    `yaml:"user_blocks"`
	FreeBlocks       int    `yaml:"free_blocks"`
	Encoding         string `yaml:"encoding"`
	ActiveDirectory  int    `yaml:"active_directory"`
	ActiveBlockTable int    `yaml:"active_block_table"`
	Files            int    `yaml:"files"`
}

// ScanReportEntry is one recovered file.
type ScanReportEntry struct {
	Block       int    `yaml:"block"`
	Length      int    `yaml:"length"`
	Address     string `yaml:"address"`
	GameCode    string `yaml:"gamecode"`
	Company     string `yaml:"company"`
	Filename    string `yaml:"filename"`
	Description string `yaml:"description"`
	GameDesc    string `yaml:"gamedesc"`
	FileDesc    string `yaml:"filedesc"`
	Region      string `yaml:"region"`
	Fingerprint string `yaml:"fingerprint"`
	DuplicateOf int    `yaml:"duplicate_of,omitempty"`
}

// ScanReportExporter implements ScanExporter.
type ScanReportExporter struct{}

// NewScanReportExporter creates a new exporter instance.
func NewScanReportExporter() *ScanReportExporter {
	return &ScanReportExporter{}
}

// BuildScanReport converts scan results into their report form.
func (e *ScanReportExporter) BuildScanReport(card *gcn.Card, entries []RecoveredEntry) ScanReport {
	report := ScanReport{
		Card: ScanReportCard{
			SizeMbit:         card.SizeMbit(),
			TotalBlocks:      card.TotalBlocks(),
			UserBlocks:       card.UserBlocks(),
			FreeBlocks:       card.FreeBlocks(),
			Encoding:         card.Encoding().String(),
			ActiveDirectory:  card.ActiveDirIndex(),
			ActiveBlockTable: card.ActiveBATIndex(),
			Files:            len(card.Files()),
		},
		TotalRecovered: len(entries),
		Entries:        make([]ScanReportEntry, 0, len(entries)),
	}

	for i := range entries {
		entry := &entries[i]
		item := ScanReportEntry{
			Block:       entry.Block,
			Length:      entry.Length,
			Address:     fmt.Sprintf("0x%04X", entry.Address),
			GameCode:    strings.TrimRight(entry.Entry.GameCodeString(), "\x00"),
			Company:     strings.TrimRight(entry.Entry.CompanyString(), "\x00"),
			Filename:    entry.Entry.FilenameString(),
			GameDesc:    entry.GameDesc,
			FileDesc:    entry.FileDesc,
			Region:      entry.Region.String(),
			Fingerprint: hex.EncodeToString(entry.Fingerprint[:]),
			DuplicateOf: entry.DuplicateOf,
		}
		if entry.Definition != nil {
			item.Description = entry.Definition.Description
		}
		report.Entries = append(report.Entries, item)
	}

	return report
}

// ExportScanReport writes the scan results to w as YAML.
func (e *ScanReportExporter) ExportScanReport(w io.Writer, card *gcn.Card, entries []RecoveredEntry) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(e.BuildScanReport(card, entries)); err != nil {
		return common.FormatError(common.ErrFailedToEncodeReport, err)
	}
	return encoder.Close()
}

// ExportScanReportFile writes the scan results to a YAML file at path.
func (e *ScanReportExporter) ExportScanReportFile(path string, card *gcn.Card, entries []RecoveredEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateReport, err)
	}
	defer file.Close()

	if err := e.ExportScanReport(file, card, entries); err != nil {
		return err
	}

	common.LogInfo(common.InfoReportExported, len(entries), path)
	return nil
}
