package pkg

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ScanOptions configures ScanProcessor.Process.
type ScanOptions struct {
	Database string // signature database; empty scans with no signatures
	Output   string // YAML report path; empty skips the report
	DirIndex int    // KeepActiveCopy or a directory copy index
	BATIndex int    // KeepActiveCopy or a block table copy index
}

// ScanProcessor combines card loading, scanning and report export.
type ScanProcessor struct {
	*CardProcessor
	*DatabaseProcessor
	*GCNLostFileScanner
	*ScanReportExporter
}

// NewScanProcessor creates a new scan processor with all its parts.
func NewScanProcessor() *ScanProcessor {
	return &ScanProcessor{
		CardProcessor:      NewCardProcessor(),
		DatabaseProcessor:  NewDatabaseProcessor(),
		GCNLostFileScanner: NewLostFileScanner(),
		ScanReportExporter: NewScanReportExporter(),
	}
}

// Process scans the card at imagePath and prints the recovered entries to w.
// A cancelled scan still prints and exports the partial result before
// returning the cancellation error.
func (p *ScanProcessor) Process(ctx context.Context, imagePath string, opts ScanOptions, w io.Writer) ([]RecoveredEntry, error) {
	db, err := p.DatabaseProcessor.Load(opts.Database)
	if err != nil {
		return nil, err
	}

	card, err := p.OpenCard(imagePath, opts.DirIndex, opts.BATIndex)
	if err != nil {
		return nil, err
	}
	defer card.Close()

	entries, scanErr := p.Scan(ctx, card, db)
	if scanErr != nil && !errors.Is(scanErr, ErrScanCancelled) {
		return nil, scanErr
	}

	fmt.Fprintf(w, "%d lost files\n", len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("block %4d  %4d blocks  @0x%04X  %s%s  %-8s %s",
			e.Block, e.Length, e.Address, e.Definition.GameCode, e.Definition.Company, e.Region, e.Definition.Description)
		if e.DuplicateOf != 0 {
			line += fmt.Sprintf(" (same data as block %d)", e.DuplicateOf)
		}
		fmt.Fprintln(w, line)
	}

	if opts.Output != "" {
		if err := p.ExportScanReportFile(opts.Output, card, entries); err != nil {
			return entries, err
		}
	}

	return entries, scanErr
}
