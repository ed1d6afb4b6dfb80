package gcn

// TableCopy is one of the two redundant instances of a card table.
type TableCopy[T any] struct {
	Valid    bool
	Counter  uint16
	Contents T
}

// SelectActive picks the authoritative copy of a redundant table pair.
//
// A copy that fails its checksum is never selected. When both copies are
// valid, the one with the greater update counter wins; counters are compared
// as signed 16-bit values, as the firmware does, and a tie goes to copy 0.
// NoActiveCopy is returned when neither copy is valid.
func SelectActive[T any](copies [CopyCount]TableCopy[T]) int {
	switch {
	case copies[0].Valid && copies[1].Valid:
		if int16(copies[1].Counter) > int16(copies[0].Counter) {
			return 1
		}
		return 0
	case copies[0].Valid:
		return 0
	case copies[1].Valid:
		return 1
	default:
		return NoActiveCopy
	}
}

// CopyLetter names a table copy the way card tools do ('A', 'B'). Any
// other index, including NoActiveCopy, is shown as '-'.
func CopyLetter(idx int) rune {
	if idx < 0 || idx >= CopyCount {
		return '-'
	}
	return rune('A' + idx)
}
