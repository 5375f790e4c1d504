package tagesschau

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Region is one of the 16 German federal states. Its value is the wire code.
type Region uint8

const (
	BadenWuerttemberg Region = iota + 1
	Bayern
	Berlin
	Brandenburg
	Bremen
	Hamburg
	Hessen
	MecklenburgVorpommern
	Niedersachsen
	NordrheinWestfalen
	RheinlandPfalz
	Saarland
	Sachsen
	SachsenAnhalt
	SchleswigHolstein
	Thueringen
)

var regionNames = [...]string{
	BadenWuerttemberg:     "baden-wuerttemberg",
	Bayern:                "bayern",
	Berlin:                "berlin",
	Brandenburg:           "brandenburg",
	Bremen:                "bremen",
	Hamburg:               "hamburg",
	Hessen:                "hessen",
	MecklenburgVorpommern: "mecklenburg-vorpommern",
	Niedersachsen:         "niedersachsen",
	NordrheinWestfalen:    "nordrhein-westfalen",
	RheinlandPfalz:        "rheinland-pfalz",
	Saarland:              "saarland",
	Sachsen:               "sachsen",
	SachsenAnhalt:         "sachsen-anhalt",
	SchleswigHolstein:     "schleswig-holstein",
	Thueringen:            "thueringen",
}

// AllRegions lists every region in wire-code order.
func AllRegions() []Region {
	out := make([]Region, 0, len(regionNames)-1)
	for r := BadenWuerttemberg; r <= Thueringen; r++ {
		out = append(out, r)
	}
	return out
}

// Code returns the numeric wire code.
func (r Region) Code() int { return int(r) }

// Valid reports whether r is a known region.
func (r Region) Valid() bool { return r >= BadenWuerttemberg && r <= Thueringen }

func (r Region) String() string {
	if !r.Valid() {
		return "region(" + strconv.Itoa(int(r)) + ")"
	}
	return regionNames[r]
}

// ParseRegion accepts a region name (case-insensitive, umlauts allowed) or its numeric code.
func ParseRegion(s string) (Region, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("ü", "ue", "ä", "ae", "ö", "oe", "_", "-", " ", "-").Replace(key)
	if key == "" {
		return 0, fmt.Errorf("region is empty")
	}
	if n, err := strconv.Atoi(key); err == nil {
		if n < int(BadenWuerttemberg) || n > int(Thueringen) {
			return 0, fmt.Errorf("unknown region code %d", n)
		}
		return Region(n), nil
	}
	for r := BadenWuerttemberg; r <= Thueringen; r++ {
		if regionNames[r] == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// RegionSet is an unordered set of regions.
type RegionSet map[Region]struct{}

// NewRegionSet builds a set from the given regions, ignoring invalid values.
func NewRegionSet(regions ...Region) RegionSet {
	set := make(RegionSet, len(regions))
	for _, r := range regions {
		if r.Valid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Contains reports whether r is in the set.
func (s RegionSet) Contains(r Region) bool {
	_, ok := s[r]
	return ok
}

// Sorted returns the members in ascending wire-code order.
func (s RegionSet) Sorted() []Region {
	out := make([]Region, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Encode returns the comma-joined wire codes, e.g. "2,3". Empty for an empty set.
func (s RegionSet) Encode() string {
	sorted := s.Sorted()
	codes := make([]string, len(sorted))
	for i, r := range sorted {
		codes[i] = strconv.Itoa(r.Code())
	}
	return strings.Join(codes, ",")
}

func (s RegionSet) clone() RegionSet {
	out := make(RegionSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}
