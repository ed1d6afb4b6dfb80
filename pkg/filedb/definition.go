package filedb

// SearchRule locates a file's comment relative to the start of its first
// block and describes the text expected there.
type SearchRule struct {
	Address  uint32
	GameDesc Matcher
	FileDesc Matcher
}

// DirEntryHint carries directory fields that cannot be recovered from the
// comment alone. Zero values mean no hint.
type DirEntryHint struct {
	Filename string
	Length   uint16
}

// FileDefinition describes how to recognize one game's save file.
type FileDefinition struct {
	Description string
	GameCode    string
	Company     string
	Regions     Regions
	Search      SearchRule
	DirEntry    DirEntryHint
}

// Matches reports whether both descriptions satisfy the search rule.
func (d *FileDefinition) Matches(gameDesc, fileDesc string) bool {
	return d.Search.GameDesc.Match(gameDesc) && d.Search.FileDesc.Match(fileDesc)
}

// Region returns the region derived from the game code, or RegionUnknown.
func (d *FileDefinition) Region() Region {
	code := []rune(d.GameCode)
	if len(code) != 4 {
		return RegionUnknown
	}
	return RegionFromChar(code[3])
}
