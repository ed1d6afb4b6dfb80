package filedb

import "strings"

// Region is the market a game code was released for.
type Region uint8

const (
	RegionUnknown Region = iota
	RegionJPN
	RegionUSA
	RegionEUR
	RegionKOR
)

var regionNames = [...]string{
	RegionUnknown: "Unknown",
	RegionJPN:     "JPN",
	RegionUSA:     "USA",
	RegionEUR:     "EUR",
	RegionKOR:     "KOR",
}

// RegionFromChar maps the fourth game code character to a region.
// Characters outside the table map to RegionUnknown.
func RegionFromChar(c rune) Region {
	switch c {
	case 'J':
		return RegionJPN
	case 'E':
		return RegionUSA
	case 'P':
		return RegionEUR
	case 'K':
		return RegionKOR
	default:
		return RegionUnknown
	}
}

func (r Region) String() string {
	if int(r) < len(regionNames) {
		return regionNames[r]
	}
	return regionNames[RegionUnknown]
}

// Regions is a set of known regions. RegionUnknown is never a member.
type Regions uint8

// RegionsOf builds a set from the given regions, skipping RegionUnknown.
func RegionsOf(regions ...Region) Regions {
	var set Regions
	for _, r := range regions {
		set = set.With(r)
	}
	return set
}

func regionBit(r Region) Regions {
	if r == RegionUnknown || r > RegionKOR {
		return 0
	}
	return 1 << (r - 1)
}

// With returns the set with r added.
func (s Regions) With(r Region) Regions {
	return s | regionBit(r)
}

// Has reports whether r is in the set.
func (s Regions) Has(r Region) bool {
	bit := regionBit(r)
	return bit != 0 && s&bit != 0
}

// IsEmpty reports whether no region is set.
func (s Regions) IsEmpty() bool {
	return s == 0
}

// List returns the members in JPN, USA, EUR, KOR order.
func (s Regions) List() []Region {
	var regions []Region
	for r := RegionJPN; r <= RegionKOR; r++ {
		if s.Has(r) {
			regions = append(regions, r)
		}
	}
	return regions
}

func (s Regions) String() string {
	regions := s.List()
	if len(regions) == 0 {
		return RegionUnknown.String()
	}

	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.String()
	}
	return strings.Join(names, "|")
}
