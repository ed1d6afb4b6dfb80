package common

import (
	"fmt"
	"log"
)

// Global variable to control debug output
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToOpenCard         = "failed to open memory card image"
	ErrFailedToReadCard         = "failed to read memory card image"
	ErrFailedToMapCard          = "failed to map memory card image"
	ErrFailedToWriteCard        = "failed to write memory card image"
	ErrFailedToFormatCard       = "failed to format memory card image"
	ErrFailedToLoadDatabase     = "failed to load file database"
	ErrFailedToReadDatabase     = "failed to read file database"
	ErrFailedToParseXML         = "failed to parse XML"
	ErrFailedToParseYAML        = "failed to parse YAML"
	ErrUnknownDatabaseFormat    = "unknown file database format"
	ErrFailedToSelectDirectory  = "failed to select directory table"
	ErrFailedToSelectBlockTable = "failed to select block table"
	ErrFailedToScanCard         = "failed to scan memory card"
	ErrFailedToCreateReport     = "failed to create report file"
	ErrFailedToEncodeReport     = "failed to encode YAML report"
)

// Info messages
const (
	InfoCardOpened        = "Opened memory card: %d blocks (%d Mbit), encoding %s"
	InfoDatabaseLoaded    = "Loaded %d file definitions at %d search addresses from %s"
	InfoScanStarted       = "Scanning %d unclaimed blocks against %d search addresses"
	InfoScanFinished      = "Scan finished: %d lost files recovered"
	InfoReportExported    = "Exported %d recovered entries to YAML: %s"
	InfoCardFormatted     = "Formatted %d Mbit memory card image: %s"
	InfoActiveDirSelected = "Directory table %c selected as active"
	InfoActiveBATSelected = "Block table %c selected as active"
)

// Debug messages
const (
	DebugTableCopy         = "%s %c: valid=%t counter=%d checksum=%04X:%04X"
	DebugChainBroken       = "Chain for slot %d stopped at block %d (next=0x%04X)"
	DebugChainLoop         = "Chain for slot %d revisits block %d"
	DebugCommentOutOfCard  = "Block %d: comment at 0x%X falls outside the card"
	DebugCandidate         = "Block %d @0x%04X: game=%q file=%q"
	DebugMatch             = "Block %d matched %q (%s%s)"
	DebugMatchTimeout      = "Pattern %q timed out on %q"
	DebugRecordLoaded      = "Record %d: %s %s @0x%04X %q"
	DebugCommentUnreadable = "Slot %d: comment unreadable: %v"
)

// Warning messages
const (
	WarnHeaderChecksum     = "Card header checksum mismatch (stored %04X:%04X, computed %04X:%04X)"
	WarnHeaderSizeMismatch = "Card header reports %d Mbit but the image holds %d Mbit"
	WarnNoValidDirectory   = "No valid directory table: directory-based data is unavailable"
	WarnNoValidBlockTable  = "No valid block table: file chains fall back to contiguous ranges"
	WarnInvalidGameCode    = "game code %q is invalid"
	WarnUnknownRegion      = "game code %q has unknown region character %q"
	WarnEmptyPattern       = "%s pattern is empty"
	WarnInvalidPattern     = "%s pattern %q does not compile: %v"
	WarnInvalidAddress     = "search address %q is invalid: %v"
	WarnInvalidLength      = "length %q is invalid: %v"
	WarnMalformedRecord    = "record does not fit the schema: %v"
	WarnRecord             = "Record %d (%s) %s: %s"
	WarnNoDatabaseFile     = "No file database given: the scan cannot match any signature"
	WarnScanCancelled      = "Scan cancelled after %d blocks"
	WarnDuplicateRecovered = "Block %d holds the same data as block %d"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}

	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
